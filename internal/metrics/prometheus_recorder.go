package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	entryDuration *prom.HistogramVec
	buildDuration prom.Histogram
	entryOutcomes *prom.CounterVec
	watchEvents   *prom.CounterVec
	rebuilds      *prom.CounterVec
	watchedFiles  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.entryDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assetforge",
			Name:      "entry_build_duration_seconds",
			Help:      "Duration of individual output entry builds",
			Buckets:   prom.DefBuckets,
		}, []string{"output"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "assetforge",
			Name:      "build_duration_seconds",
			Help:      "Total one-shot build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.entryOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetforge",
			Name:      "entry_outcomes_total",
			Help:      "Entry build outcomes by result",
		}, []string{"output", "result"})
		pr.watchEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetforge",
			Name:      "watch_events_total",
			Help:      "Filesystem change events attributed to an output",
		}, []string{"output"})
		pr.rebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetforge",
			Name:      "rebuilds_total",
			Help:      "Watch-triggered rebuilds by result",
		}, []string{"output", "result"})
		pr.watchedFiles = prom.NewGauge(prom.GaugeOpts{
			Namespace: "assetforge",
			Name:      "watched_files",
			Help:      "Number of source files under filesystem observation",
		})
		reg.MustRegister(pr.entryDuration, pr.buildDuration, pr.entryOutcomes, pr.watchEvents, pr.rebuilds, pr.watchedFiles)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveEntryDuration(output string, d time.Duration) {
	if p == nil || p.entryDuration == nil {
		return
	}
	p.entryDuration.WithLabelValues(output).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncEntryOutcome(output string, result ResultLabel) {
	if p == nil || p.entryOutcomes == nil {
		return
	}
	p.entryOutcomes.WithLabelValues(output, string(result)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(output string) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.WithLabelValues(output).Inc()
}

func (p *PrometheusRecorder) IncRebuild(output string, result ResultLabel) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(output, string(result)).Inc()
}

func (p *PrometheusRecorder) SetWatchedFiles(n int) {
	if p == nil || p.watchedFiles == nil {
		return
	}
	p.watchedFiles.Set(float64(n))
}
