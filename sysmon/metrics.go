package sysmon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the memory monitor's readings. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	memoryUsedPct prometheus.Gauge
	shedsTotal    prometheus.Counter
}

// NewMetrics registers the sysmon metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		memoryUsedPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wxcomment",
			Subsystem: "sysmon",
			Name:      "memory_used_percent",
			Help:      "Last sampled system memory usage",
		}),
		shedsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "sysmon",
			Name:      "cache_sheds_total",
			Help:      "Times the caches were shrunk under memory pressure",
		}),
	}
}

func (m *Metrics) usedPercent(pct float64) {
	if m != nil {
		m.memoryUsedPct.Set(pct)
	}
}

func (m *Metrics) shed() {
	if m != nil {
		m.shedsTotal.Inc()
	}
}
