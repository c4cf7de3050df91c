package metrics

import "time"

// BuildOutcomeLabel enumerates final build states for counters.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildPartial  BuildOutcomeLabel = "partial"
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds, phases and page renders.
// Implementations must be safe for concurrent use; pages report from workers.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePageDuration(path string, d time.Duration, success bool)
	IncPageResult(success bool)
	SetWorkerCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration)      {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)               {}
func (NoopRecorder) ObservePageDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncPageResult(bool)                              {}
func (NoopRecorder) SetWorkerCount(int)                              {}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
