package state

import "testing"

func TestExecution_AdvanceIteration(t *testing.T) {
	e := NewExecution("task-1", 3)
	if e.AdvanceIteration() {
		t.Error("AdvanceIteration() at iteration 1 of 3 should not report exhausted")
	}
	if e.AdvanceIteration() {
		t.Error("AdvanceIteration() at iteration 2 of 3 should not report exhausted")
	}
	if !e.AdvanceIteration() {
		t.Error("AdvanceIteration() at iteration 3 of 3 should report exhausted")
	}
}

func TestExecution_CompletePendingCalls(t *testing.T) {
	e := NewExecution("task-1", 10)
	call := NewToolCall("search", map[string]interface{}{"query": "go"})
	call.Succeed("result", 0)
	e.QueueCalls([]ToolCall{call})

	e.CompletePendingCalls()

	if len(e.PendingCalls) != 0 {
		t.Errorf("PendingCalls = %v, want empty after completion", e.PendingCalls)
	}
	if len(e.CompletedCalls) != 1 {
		t.Fatalf("CompletedCalls len = %d, want 1", len(e.CompletedCalls))
	}
	if e.CompletedCalls[0].Outcome != OutcomeSuccess {
		t.Errorf("CompletedCalls[0].Outcome = %v, want success", e.CompletedCalls[0].Outcome)
	}
}

func TestExecution_StopAndDone(t *testing.T) {
	e := NewExecution("task-1", 10)
	if e.Done() {
		t.Error("Done() should be false before Stop()")
	}
	e.Stop(StopMaxIterations, "final answer")
	if !e.Done() {
		t.Error("Done() should be true after Stop()")
	}
	if e.Response != "final answer" {
		t.Errorf("Response = %q, want final answer", e.Response)
	}
}

func TestToolCall_Label(t *testing.T) {
	tests := []struct {
		name string
		call ToolCall
		want string
	}{
		{name: "no args", call: NewToolCall("ping", nil), want: "ping()"},
		{name: "single arg", call: NewToolCall("search", map[string]interface{}{"query": "golang"}), want: "search(query=golang)"},
		{name: "multi arg", call: NewToolCall("write", map[string]interface{}{"path": "a", "content": "b"}), want: "write(2 args)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.call.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
