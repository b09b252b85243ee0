package workflow

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeNode(NodeSelectPair, 10*time.Millisecond, true)
	m.observeNode(NodeEvaluate, 5*time.Millisecond, false)
	m.observeRun(true, 2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]bool, len(families))
	for _, f := range families {
		got[f.GetName()] = true
	}
	for _, name := range []string{
		"wxcomment_workflow_node_duration_seconds",
		"wxcomment_workflow_node_executions_total",
		"wxcomment_workflow_runs_total",
		"wxcomment_workflow_retries_per_run",
	} {
		if !got[name] {
			t.Errorf("series %s not registered", name)
		}
	}
}

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.observeNode(NodeOutput, time.Millisecond, true)
	m.observeRun(false, 0)
}
