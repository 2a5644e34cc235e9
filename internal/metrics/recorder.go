package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates the final status of one processed document.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomePartial  OutcomeLabel = "partial"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for document and stage metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveDocumentDuration(d time.Duration)
	IncDocumentOutcome(outcome OutcomeLabel)
	IncBlocks(kind string)
	AddArtifacts(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveDocumentDuration(time.Duration)      {}
func (NoopRecorder) IncDocumentOutcome(OutcomeLabel)            {}
func (NoopRecorder) IncBlocks(string)                           {}
func (NoopRecorder) AddArtifacts(int)                           {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
