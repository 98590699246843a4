// Package metrics counts reactive writes and watcher updates with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/delaneyj/signalbind/reactive"
)

const namespace = "signalbind"

// Meter implements reactive.Meter.
type Meter struct {
	Writes        *prometheus.CounterVec
	SkippedWrites *prometheus.CounterVec
	Updates       *prometheus.CounterVec
	FanOut        prometheus.Histogram
}

var _ reactive.Meter = (*Meter)(nil)

func New() *Meter {
	return &Meter{
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_writes_total",
			Help:      "Writes that changed a reactive field.",
		}, []string{"field"}),
		SkippedWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_writes_skipped_total",
			Help:      "Writes of a value equal to the current one.",
		}, []string{"field"}),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_updates_total",
			Help:      "Display updates pushed by watchers.",
		}, []string{"field"}),
		FanOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_fanout",
			Help:      "Subscribers notified per write.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
}

// Register adds every collector to reg.
func (m *Meter) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Writes, m.SkippedWrites, m.Updates, m.FanOut} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Meter) FieldWritten(key string, subscribers int) {
	m.Writes.WithLabelValues(key).Inc()
	m.FanOut.Observe(float64(subscribers))
}

func (m *Meter) WriteSkipped(key string) {
	m.SkippedWrites.WithLabelValues(key).Inc()
}

func (m *Meter) WatcherUpdated(key string) {
	m.Updates.WithLabelValues(key).Inc()
}
