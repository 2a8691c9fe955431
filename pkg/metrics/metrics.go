// Package metrics exposes prometheus collectors for the pull activity of the feature browser.
package metrics

import (
	"time"

	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feature_browser"

// PullMetrics records every pull of the data sources it is attached to
type PullMetrics struct {
	pulls    *prometheus.CounterVec
	items    prometheus.Counter
	duration prometheus.Histogram
}

var _ pullable.Observer = &PullMetrics{}

// NewPullMetrics creates the pull collectors and registers them with registerer
func NewPullMetrics(registerer prometheus.Registerer) (*PullMetrics, error) {
	m := &PullMetrics{
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulls_total",
			Help:      "Number of data source pulls by outcome.",
		}, []string{"outcome"}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulled_items_total",
			Help:      "Number of items appended to data sources.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pull_duration_seconds",
			Help:      "Duration of successful and failed page fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, collector := range []prometheus.Collector{m.pulls, m.items, m.duration} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePull implements pullable.Observer
func (m *PullMetrics) ObservePull(outcome string, items int, duration time.Duration) {
	m.pulls.WithLabelValues(outcome).Inc()
	switch outcome {
	case pullable.OutcomeSuccess:
		m.items.Add(float64(items))
		m.duration.Observe(duration.Seconds())
	case pullable.OutcomeError:
		m.duration.Observe(duration.Seconds())
	}
}
