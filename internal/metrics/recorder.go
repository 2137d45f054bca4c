package metrics

import "time"

// ResultLabel enumerates build result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for build and watch metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveEntryDuration(output string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncEntryOutcome(output string, result ResultLabel)
	IncWatchEvent(output string)
	IncRebuild(output string, result ResultLabel)
	SetWatchedFiles(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveEntryDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncEntryOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncWatchEvent(string)                       {}
func (NoopRecorder) IncRebuild(string, ResultLabel)             {}
func (NoopRecorder) SetWatchedFiles(int)                        {}
