package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes batch scheduling counters to Prometheus. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	itemsTotal    *prometheus.CounterVec
	itemsInFlight prometheus.Gauge
	batchDuration prometheus.Histogram
	itemLatency   prometheus.Histogram
}

// NewMetrics registers the batch metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		itemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "batch",
			Name:      "items_total",
			Help:      "Batch items by outcome (success, timeout, error)",
		}, []string{"outcome"}),
		itemsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wxcomment",
			Subsystem: "batch",
			Name:      "items_in_flight",
			Help:      "Batch items currently executing",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wxcomment",
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of whole batches",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		itemLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wxcomment",
			Subsystem: "batch",
			Name:      "item_latency_seconds",
			Help:      "Per-item generation latency",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

func (m *Metrics) itemStarted() {
	if m != nil {
		m.itemsInFlight.Inc()
	}
}

func (m *Metrics) itemDone(item ItemResult) {
	if m == nil {
		return
	}
	m.itemsInFlight.Dec()
	outcome := "error"
	switch {
	case item.Success():
		outcome = "success"
	case item.TimedOut():
		outcome = "timeout"
	}
	m.itemsTotal.WithLabelValues(outcome).Inc()
	m.itemLatency.Observe(item.Elapsed.Seconds())
}

func (m *Metrics) batchDone(elapsed time.Duration) {
	if m != nil {
		m.batchDuration.Observe(elapsed.Seconds())
	}
}
