// Package obs provides optional Prometheus instrumentation for the
// synchronizer. Attach a FlushMetrics with autosave.WithMetrics; without it
// the library records nothing.
package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FlushMetrics holds the collectors describing flush activity for one or
// more synchronizer instances.
type FlushMetrics struct {
	FlushTotal       *prometheus.CounterVec
	FlushErrorsTotal *prometheus.CounterVec
	FlushDuration    prometheus.Histogram
	PendingWindow    prometheus.Gauge
}

// NewFlushMetrics builds and registers the collectors on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default registry.
func NewFlushMetrics(reg prometheus.Registerer) *FlushMetrics {
	factory := promauto.With(reg)
	return &FlushMetrics{
		FlushTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autosave_flush_total",
			Help: "Flush attempts by trigger",
		}, []string{"trigger"}),
		FlushErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autosave_flush_errors_total",
			Help: "Failed flush attempts by trigger",
		}, []string{"trigger"}),
		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autosave_flush_duration_seconds",
			Help:    "Save callback latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		PendingWindow: factory.NewGauge(prometheus.GaugeOpts{
			Name: "autosave_pending_window",
			Help: "1 while a debounce window is open, 0 when idle",
		}),
	}
}

// ObserveFlush records one settled flush attempt. Nil-safe.
func (m *FlushMetrics) ObserveFlush(trigger string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.FlushTotal.WithLabelValues(trigger).Inc()
	m.FlushDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.FlushErrorsTotal.WithLabelValues(trigger).Inc()
	}
}

// WindowOpened marks a debounce window as open. Nil-safe.
func (m *FlushMetrics) WindowOpened() {
	if m == nil {
		return
	}
	m.PendingWindow.Set(1)
}

// WindowClosed marks the synchronizer as idle. Nil-safe.
func (m *FlushMetrics) WindowClosed() {
	if m == nil {
		return
	}
	m.PendingWindow.Set(0)
}
