package validator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts checker outcomes. A nil *Metrics disables recording.
type Metrics struct {
	checks *prometheus.CounterVec
}

// NewMetrics registers the validator counters on reg. A nil reg
// registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "validator",
			Name:      "checks_total",
			Help:      "Checker outcomes by checker name.",
		}, []string{"checker", "outcome"}),
	}
}

func (m *Metrics) observe(checker string, ok bool) {
	if m == nil {
		return
	}
	outcome := "pass"
	if !ok {
		outcome = "fail"
	}
	m.checks.WithLabelValues(checker, outcome).Inc()
}
