package forecast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes forecast cache and provider counters to Prometheus.
// All metrics are namespaced "wxcomment" subsystem "forecast".
//
// A nil *Metrics is valid and records nothing, so tests and callers
// without a registry can pass nil.
type Metrics struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	spatialBorrows prometheus.Counter
	apiCalls       prometheus.Counter
	apiErrors      *prometheus.CounterVec
}

// NewMetrics registers the forecast metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "forecast",
			Name:      "cache_hits_total",
			Help:      "Forecast cache hits by tier (l1, l2, spatial)",
		}, []string{"tier"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "forecast",
			Name:      "cache_misses_total",
			Help:      "Forecast cache misses by tier",
		}, []string{"tier"}),
		spatialBorrows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "forecast",
			Name:      "spatial_borrows_total",
			Help:      "Forecasts adopted from a nearby location's cache",
		}),
		apiCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "forecast",
			Name:      "api_calls_total",
			Help:      "Calls issued to the external weather provider",
		}),
		apiErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "forecast",
			Name:      "api_errors_total",
			Help:      "External weather provider failures by tag",
		}, []string{"tag"}),
	}
}

func (m *Metrics) cacheHit(tier string) {
	if m != nil {
		m.cacheHits.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) cacheMiss(tier string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) spatialBorrow() {
	if m != nil {
		m.spatialBorrows.Inc()
	}
}

func (m *Metrics) apiCall() {
	if m != nil {
		m.apiCalls.Inc()
	}
}

func (m *Metrics) apiError(tag string) {
	if m != nil {
		m.apiErrors.WithLabelValues(tag).Inc()
	}
}
