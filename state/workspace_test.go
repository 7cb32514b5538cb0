package state

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWorkspace_AddThoughtAppendOnly(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "find the bug")
	w.AddThought(Thought{Thinking: "first"})
	w.AddThought(Thought{Thinking: "second"})

	thoughts := w.Thoughts()
	if len(thoughts) != 2 || thoughts[0].Thinking != "first" || thoughts[1].Thinking != "second" {
		t.Errorf("Thoughts() = %+v, want [first second]", thoughts)
	}
	if thoughts[0].Iteration != 1 || thoughts[1].Iteration != 2 {
		t.Errorf("Thoughts() iterations = %d, %d, want 1, 2", thoughts[0].Iteration, thoughts[1].Iteration)
	}
}

func TestWorkspace_SetLastActionOutcome(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "objective")
	w.AddThought(Thought{Thinking: "calling a tool"})
	w.SetLastActionOutcome(ActionSuccess)

	last, ok := w.LastThought()
	if !ok {
		t.Fatal("LastThought() ok = false, want true")
	}
	if last.ActionOutcome != ActionSuccess {
		t.Errorf("ActionOutcome = %q, want success", last.ActionOutcome)
	}
}

func TestWorkspace_SetLastActionOutcome_EmptyTrailIsNoop(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "objective")
	w.SetLastActionOutcome(ActionSuccess)
	if _, ok := w.LastThought(); ok {
		t.Error("LastThought() should report false on an empty trail")
	}
}

func TestWorkspace_SetMode_MonotonicEscalation(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "objective")
	if err := w.SetMode(ModeDeep); err != nil {
		t.Fatalf("SetMode(deep) from fast should succeed: %v", err)
	}
	if err := w.SetMode(ModeFast); err == nil {
		t.Error("SetMode(fast) from deep should be rejected")
	}
	if w.Mode != ModeDeep {
		t.Errorf("Mode = %v, want deep to remain after rejected downgrade", w.Mode)
	}
}

func TestWorkspace_Compressed_TruncatesThoughts(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "objective")
	for _, th := range []string{"a", "b", "c", "d"} {
		w.AddThought(Thought{Thinking: th})
	}
	w.AddInsight("key insight")
	w.SetFact("language", "go")

	out := w.Compressed(2)
	for _, want := range []string{"Objective: objective", "key insight", "language: go", "- c", "- d"} {
		if !strings.Contains(out, want) {
			t.Errorf("Compressed() = %q, missing %q", out, want)
		}
	}
	if strings.Contains(out, "- a") || strings.Contains(out, "- b") {
		t.Errorf("Compressed(2) should drop oldest thoughts, got %q", out)
	}
}

func TestWorkspace_JSONRoundTrip(t *testing.T) {
	w := NewWorkspace("user-1", "conv-1", "objective")
	w.AddThought(Thought{Thinking: "first", Planning: "plan a", ToolCalls: []ToolCall{NewToolCall("search", map[string]interface{}{"q": "go"})}})
	w.SetLastActionOutcome(ActionSuccess)
	w.AddInsight("insight")
	w.SetFact("k", "v")
	w.SetApproach("direct")
	if err := w.SetMode(ModeDeep); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var round Workspace
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if round.TaskID != w.TaskID || round.Objective != w.Objective || round.Mode != w.Mode || round.Approach != w.Approach {
		t.Errorf("round trip lost scalar fields: got %+v", round)
	}
	if got := round.Thoughts(); len(got) != 1 || got[0].Thinking != "first" || got[0].ActionOutcome != ActionSuccess {
		t.Errorf("round trip lost thought data: got %+v", got)
	}
	if got := round.Insights(); len(got) != 1 || got[0] != "insight" {
		t.Errorf("round trip lost insights: got %v", got)
	}
	if got := round.Facts(); got["k"] != "v" {
		t.Errorf("round trip lost facts: got %v", got)
	}
}
