package sitegen

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the build counters exposed by the preview server.
type Metrics struct {
	Registry *prometheus.Registry

	pagesWritten    prometheus.Counter
	imagesWrapped   *prometheus.CounterVec
	imagesOptimized prometheus.Counter
	filesRewritten  *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	buildOutcome    *prometheus.CounterVec
}

// NewMetrics constructs the build metrics and registers them with reg, or
// with a fresh registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Registry: reg,
		pagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "pages_written_total",
			Help:      "HTML pages written by builds",
		}),
		imagesWrapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "images_wrapped_total",
			Help:      "Images wrapped in links by render-stage strategies",
		}, []string{"strategy"}),
		imagesOptimized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "images_optimized_total",
			Help:      "Images resized and re-encoded (cache misses)",
		}),
		filesRewritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "files_rewritten_total",
			Help:      "Output files changed by post-build passes",
		}, []string{"pass"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitegen",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prometheus.DefBuckets,
		}),
		buildOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "build_outcomes_total",
			Help:      "Builds by final status",
		}, []string{"status"}),
	}
	reg.MustRegister(m.pagesWritten, m.imagesWrapped, m.imagesOptimized, m.filesRewritten, m.buildDuration, m.buildOutcome)
	return m
}

func (m *Metrics) observeBuild(b Build) {
	m.buildDuration.Observe(b.Duration().Seconds())
	m.buildOutcome.WithLabelValues(b.Status).Inc()
}
