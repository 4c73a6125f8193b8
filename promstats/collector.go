// Package promstats exports segbloom metrics to Prometheus.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/segbloom"
)

// Collector implements segbloom.MetricsCollector with Prometheus metrics.
type Collector struct {
	lookups       *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildLatency  prometheus.Histogram
	invalidations prometheus.Counter
}

var _ segbloom.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segbloom_filter_lookups_total",
			Help: "Membership filter lookups by result",
		}, []string{"result"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segbloom_filter_builds_total",
			Help: "Membership filter builds by outcome",
		}, []string{"outcome"}),
		buildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segbloom_filter_build_duration_seconds",
			Help:    "Time spent enumerating keys and building a filter",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segbloom_filter_invalidations_total",
			Help: "Segment tables dropped after close or clear",
		}),
	}

	for _, m := range []prometheus.Collector{c.lookups, c.builds, c.buildLatency, c.invalidations} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordLookup implements segbloom.MetricsCollector.
func (c *Collector) RecordLookup(result segbloom.LookupResult) {
	c.lookups.WithLabelValues(result.String()).Inc()
}

// RecordBuild implements segbloom.MetricsCollector.
func (c *Collector) RecordBuild(d time.Duration, outcome segbloom.BuildOutcome) {
	c.builds.WithLabelValues(outcome.String()).Inc()
	if outcome != segbloom.BuildRejected {
		c.buildLatency.Observe(d.Seconds())
	}
}

// RecordInvalidation implements segbloom.MetricsCollector.
func (c *Collector) RecordInvalidation() {
	c.invalidations.Inc()
}
