// Package emit carries observability events out of workflow runs.
package emit

// Event is one observability event from a workflow run.
type Event struct {
	// RunID identifies the workflow execution.
	RunID string

	// Step is the sequential step number (1-indexed); zero for
	// run-level events.
	Step int

	// NodeID names the node that produced the event; empty for
	// run-level events.
	NodeID string

	// Msg is the event kind ("node_start", "node_end", "node_error",
	// "run_start", "run_end").
	Msg string

	// Meta holds event-specific fields. Common keys: "duration_ms",
	// "error", "retry_count", "provider".
	Meta map[string]interface{}
}

// Emitter receives events from workflow execution.
//
// Implementations must be safe for concurrent use and must not block
// or panic; a slow backend should drop rather than stall a run.
type Emitter interface {
	Emit(event Event)
}

// NullEmitter discards every event.
type NullEmitter struct{}

func (NullEmitter) Emit(Event) {}
