package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls per metric.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	docDurations   int
	docOutcomes    map[OutcomeLabel]int
	blocks         map[string]int
	artifacts      int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		docOutcomes:    map[OutcomeLabel]int{},
		blocks:         map[string]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveDocumentDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docDurations++
}

func (t *testRecorder) IncDocumentOutcome(outcome OutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docOutcomes[outcome]++
}

func (t *testRecorder) IncBlocks(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks[kind]++
}

func (t *testRecorder) AddArtifacts(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.artifacts += n
}

var _ Recorder = (*testRecorder)(nil)
var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
