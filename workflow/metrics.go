package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments workflow runs. A nil *Metrics disables
// recording.
type Metrics struct {
	nodeDuration *prometheus.HistogramVec
	nodeOutcome  *prometheus.CounterVec
	runs         *prometheus.CounterVec
	retries      prometheus.Histogram
}

// NewMetrics registers the workflow collectors on reg. A nil reg
// registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wxcomment",
			Subsystem: "workflow",
			Name:      "node_duration_seconds",
			Help:      "Wall clock per node execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		nodeOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "workflow",
			Name:      "node_executions_total",
			Help:      "Node executions by outcome.",
		}, []string{"node", "outcome"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxcomment",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		retries: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wxcomment",
			Subsystem: "workflow",
			Name:      "retries_per_run",
			Help:      "Validation retries consumed per run.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
	}
}

func (m *Metrics) observeNode(node string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(node).Observe(d.Seconds())
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.nodeOutcome.WithLabelValues(node, outcome).Inc()
}

func (m *Metrics) observeRun(success bool, retries int) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.retries.Observe(float64(retries))
}
