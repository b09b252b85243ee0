package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/workflow/emit"
)

// Node is one processing step in the generation state machine. Nodes
// mutate the state in place and return a routing decision.
type Node interface {
	Run(ctx context.Context, st *GenerationState) NodeResult
}

// NodeFunc adapts a plain function to Node.
type NodeFunc func(ctx context.Context, st *GenerationState) NodeResult

func (f NodeFunc) Run(ctx context.Context, st *GenerationState) NodeResult {
	return f(ctx, st)
}

// NodeResult is a node's routing decision plus any failure.
type NodeResult struct {
	// Route picks the next node. A zero Route defers to the engine's
	// conditional edges.
	Route Next

	// Err is a node failure. The engine records it on the state and
	// routes to the error sink instead of propagating.
	Err error
}

// Next routes execution after a node completes.
type Next struct {
	To       string
	Terminal bool
}

// Stop returns a terminal route.
func Stop() Next { return Next{Terminal: true} }

// Goto routes to a specific node.
func Goto(nodeID string) Next { return Next{To: nodeID} }

// Predicate decides whether a conditional edge fires.
type Predicate func(st *GenerationState) bool

// Edge is a conditional transition consulted when a node returns no
// explicit route. Edges from the same node are evaluated in insertion
// order; the first predicate returning true wins.
type Edge struct {
	From string
	To   string
	When Predicate
}

// Options bounds engine execution.
type Options struct {
	// MaxSteps caps total node executions per run, preventing a buggy
	// edge set from looping forever.
	MaxSteps int
}

const defaultMaxSteps = 50

// Engine owns the node graph and drives one run at a time per state.
type Engine struct {
	nodes     map[string]Node
	edges     []Edge
	startNode string
	errorSink string
	opts      Options
	emitter   emit.Emitter
	metrics   *Metrics
	log       *zap.Logger
}

// NewEngine builds an empty engine.
func NewEngine(emitter emit.Emitter, metrics *Metrics, log *zap.Logger, opts Options) *Engine {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	return &Engine{
		nodes:   make(map[string]Node),
		emitter: emitter,
		metrics: metrics,
		log:     log,
		opts:    opts,
	}
}

// Add registers a node under a unique ID.
func (e *Engine) Add(nodeID string, node Node) error {
	if nodeID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if node == nil {
		return fmt.Errorf("node %q is nil", nodeID)
	}
	if _, exists := e.nodes[nodeID]; exists {
		return fmt.Errorf("node %q already registered", nodeID)
	}
	e.nodes[nodeID] = node
	return nil
}

// Connect adds a conditional edge. A nil predicate always fires,
// making the edge an unconditional default; list it last.
func (e *Engine) Connect(from, to string, when Predicate) {
	e.edges = append(e.edges, Edge{From: from, To: to, When: when})
}

// StartAt sets the entry node.
func (e *Engine) StartAt(nodeID string) { e.startNode = nodeID }

// OnError names the node that finalizes the state after a node
// failure. A failure inside the sink itself terminates the run.
func (e *Engine) OnError(nodeID string) { e.errorSink = nodeID }

// Run executes the graph over st until a terminal route, recording
// per-node wall clock into st.Metadata.
func (e *Engine) Run(ctx context.Context, runID string, st *GenerationState) error {
	if e.startNode == "" {
		return fmt.Errorf("no start node configured")
	}
	if st.Metadata.NodeExecutionTimes == nil {
		st.Metadata.NodeExecutionTimes = make(map[string]float64)
	}

	e.emitter.Emit(emit.Event{RunID: runID, Msg: "run_start", Meta: map[string]interface{}{
		"location": st.LocationName,
		"provider": st.ProviderName,
	}})

	current := e.startNode
	for step := 1; ; step++ {
		if step > e.opts.MaxSteps {
			st.Success = false
			st.recordError(current, CodeInternalError, fmt.Sprintf("exceeded %d steps", e.opts.MaxSteps))
			break
		}
		if err := ctx.Err(); err != nil {
			st.Success = false
			st.recordError(current, CodeTimeoutError, err.Error())
			break
		}

		node, ok := e.nodes[current]
		if !ok {
			st.Success = false
			st.recordError(current, CodeInternalError, fmt.Sprintf("unknown node %q", current))
			break
		}

		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: current, Msg: "node_start"})
		start := time.Now()
		res := node.Run(ctx, st)
		elapsed := time.Since(start)

		st.Metadata.NodeExecutionTimes[current] += float64(elapsed.Microseconds()) / 1000.0
		st.Metadata.ExecutedNodes = append(st.Metadata.ExecutedNodes, current)
		e.metrics.observeNode(current, elapsed, res.Err == nil)

		if res.Err != nil {
			e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: current, Msg: "node_error",
				Meta: map[string]interface{}{"error": res.Err.Error()}})
			st.Success = false
			code, msg := errorCode(res.Err)
			st.recordError(current, code, msg)
			// Route to the sink so the run still produces a result.
			if e.errorSink != "" && current != e.errorSink {
				current = e.errorSink
				continue
			}
			break
		}

		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: current, Msg: "node_end",
			Meta: map[string]interface{}{"duration_ms": float64(elapsed.Microseconds()) / 1000.0}})

		next, err := e.route(current, res.Route, st)
		if err != nil {
			st.Success = false
			st.recordError(current, CodeInternalError, err.Error())
			break
		}
		if next == "" {
			break
		}
		current = next
	}

	st.Metadata.RetryCount = st.RetryCount
	e.emitter.Emit(emit.Event{RunID: runID, Msg: "run_end", Meta: map[string]interface{}{
		"success":     st.Success,
		"retry_count": st.RetryCount,
	}})
	return nil
}

// route resolves the next node: explicit routes win, then conditional
// edges first-match, then terminal.
func (e *Engine) route(current string, explicit Next, st *GenerationState) (string, error) {
	if explicit.Terminal {
		return "", nil
	}
	if explicit.To != "" {
		if _, ok := e.nodes[explicit.To]; !ok {
			return "", fmt.Errorf("route to unknown node %q", explicit.To)
		}
		return explicit.To, nil
	}
	for _, edge := range e.edges {
		if edge.From != current {
			continue
		}
		if edge.When == nil || edge.When(st) {
			if _, ok := e.nodes[edge.To]; !ok {
				return "", fmt.Errorf("edge to unknown node %q", edge.To)
			}
			return edge.To, nil
		}
	}
	return "", nil
}
