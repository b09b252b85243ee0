package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wxcomment/wxcomment-go/workflow/emit"
)

// testEmitter records events for assertions.
type testEmitter struct {
	mu     sync.Mutex
	events []emit.Event
}

func (e *testEmitter) Emit(ev emit.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *testEmitter) messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Msg
	}
	return out
}

func passNode() Node {
	return NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{}
	})
}

func TestEngineAddRejectsDuplicates(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	if err := e.Add("a", passNode()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.Add("a", passNode()); err == nil {
		t.Fatal("expected duplicate node error")
	}
	if err := e.Add("", passNode()); err == nil {
		t.Fatal("expected empty ID error")
	}
	if err := e.Add("b", nil); err == nil {
		t.Fatal("expected nil node error")
	}
}

func TestEngineFollowsEdgesFirstMatch(t *testing.T) {
	var visited []string
	record := func(id string) Node {
		return NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
			visited = append(visited, id)
			return NodeResult{}
		})
	}

	e := NewEngine(nil, nil, nil, Options{})
	e.Add("start", record("start"))
	e.Add("yes", record("yes"))
	e.Add("no", record("no"))
	e.Connect("start", "yes", func(st *GenerationState) bool { return st.RetryCount > 0 })
	e.Connect("start", "no", nil)
	e.StartAt("start")

	st := &GenerationState{RetryCount: 1}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(visited) != 2 || visited[1] != "yes" {
		t.Fatalf("visited = %v, want [start yes]", visited)
	}
}

func TestEngineExplicitRouteWinsOverEdges(t *testing.T) {
	var visited []string
	e := NewEngine(nil, nil, nil, Options{})
	e.Add("start", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		visited = append(visited, "start")
		return NodeResult{Route: Goto("b")}
	}))
	e.Add("a", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		visited = append(visited, "a")
		return NodeResult{}
	}))
	e.Add("b", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		visited = append(visited, "b")
		return NodeResult{Route: Stop()}
	}))
	e.Connect("start", "a", nil)
	e.StartAt("start")

	st := &GenerationState{}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(visited) != 2 || visited[1] != "b" {
		t.Fatalf("visited = %v, want [start b]", visited)
	}
}

func TestEngineMaxStepsGuard(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{MaxSteps: 5})
	e.Add("loop", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Route: Goto("loop")}
	}))
	e.StartAt("loop")

	st := &GenerationState{}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Success {
		t.Fatal("expected failure after step cap")
	}
	if len(st.Errors) == 0 || st.Errors[0].Code != CodeInternalError {
		t.Fatalf("errors = %+v, want InternalError", st.Errors)
	}
	if len(st.Metadata.ExecutedNodes) != 5 {
		t.Fatalf("executed %d nodes, want 5", len(st.Metadata.ExecutedNodes))
	}
}

func TestEngineRoutesFailureToSink(t *testing.T) {
	var sinkRan bool
	e := NewEngine(nil, nil, nil, Options{})
	e.Add("start", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Err: errors.New("boom")}
	}))
	e.Add("sink", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		sinkRan = true
		return NodeResult{Route: Stop()}
	}))
	e.StartAt("start")
	e.OnError("sink")

	st := &GenerationState{}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sinkRan {
		t.Fatal("error sink did not run")
	}
	if st.Success {
		t.Fatal("expected success=false after node error")
	}
	if len(st.Errors) != 1 || st.Errors[0].Node != "start" {
		t.Fatalf("errors = %+v", st.Errors)
	}
}

func TestEngineFailureInsideSinkTerminates(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	e.Add("sink", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Err: errors.New("sink broke")}
	}))
	e.StartAt("sink")
	e.OnError("sink")

	st := &GenerationState{}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.Metadata.ExecutedNodes) != 1 {
		t.Fatalf("executed %v, want single sink run", st.Metadata.ExecutedNodes)
	}
}

func TestEngineHonorsContextCancellation(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	e.Add("loop", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Route: Goto("loop")}
	}))
	e.StartAt("loop")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := &GenerationState{}
	if err := e.Run(ctx, "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Success || len(st.Errors) == 0 || st.Errors[0].Code != CodeTimeoutError {
		t.Fatalf("errors = %+v, want TimeoutError", st.Errors)
	}
}

func TestEngineEmitsLifecycleEvents(t *testing.T) {
	em := &testEmitter{}
	e := NewEngine(em, nil, nil, Options{})
	e.Add("only", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Route: Stop()}
	}))
	e.StartAt("only")

	if err := e.Run(context.Background(), "r1", &GenerationState{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := em.messages()
	want := []string{"run_start", "node_start", "node_end", "run_end"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEngineRecordsNodeTimings(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	e.Add("a", passNode())
	e.Add("b", NodeFunc(func(ctx context.Context, st *GenerationState) NodeResult {
		return NodeResult{Route: Stop()}
	}))
	e.Connect("a", "b", nil)
	e.StartAt("a")

	st := &GenerationState{}
	if err := e.Run(context.Background(), "r1", st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if _, ok := st.Metadata.NodeExecutionTimes[id]; !ok {
			t.Fatalf("no timing recorded for %q", id)
		}
	}
	if len(st.Metadata.ExecutedNodes) != 2 {
		t.Fatalf("executed = %v", st.Metadata.ExecutedNodes)
	}
}
