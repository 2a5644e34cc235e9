package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "usemin"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	documentDuration prom.Histogram
	documentOutcome  *prom.CounterVec
	blocks           *prom.CounterVec
	artifacts        prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.documentDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent processing one HTML document",
			Buckets:   prom.DefBuckets,
		})
		pr.documentOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_outcomes_total",
			Help:      "Document outcomes by final status",
		}, []string{"outcome"})
		pr.blocks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Build blocks processed by kind",
		}, []string{"kind"})
		pr.artifacts = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Asset files produced by block pipelines",
		})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.documentDuration, pr.documentOutcome, pr.blocks, pr.artifacts)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDocumentDuration(d time.Duration) {
	if p == nil || p.documentDuration == nil {
		return
	}
	p.documentDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentOutcome(outcome OutcomeLabel) {
	if p == nil || p.documentOutcome == nil {
		return
	}
	p.documentOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBlocks(kind string) {
	if p == nil || p.blocks == nil {
		return
	}
	p.blocks.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) AddArtifacts(n int) {
	if p == nil || p.artifacts == nil || n <= 0 {
		return
	}
	p.artifacts.Add(float64(n))
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
