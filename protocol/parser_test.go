package protocol

import (
	"context"
	"slices"
	"testing"
	"time"
)

func seqOf(tokens ...string) func(func(string) bool) {
	return func(yield func(string) bool) {
		for _, t := range tokens {
			if !yield(t) {
				return
			}
		}
	}
}

func collect(tokens ...string) []Event {
	var events []Event
	for ev := range Parse(seqOf(tokens...)) {
		events = append(events, ev)
	}
	return events
}

func TestParse_DirectAnswer(t *testing.T) {
	events := collect("§respond:\n4§end")
	want := []Event{
		{Kind: Respond, Content: "4"},
		{Kind: End},
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_SplitDelimiterReassembly(t *testing.T) {
	events := collect("§", "thi", "nk", ": hello")
	want := []Event{{Kind: Think, Content: "hello"}}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_EmbeddedDelimiter(t *testing.T) {
	events := collect("answer\n§end")
	want := []Event{
		{Kind: Respond, Content: "answer\n"},
		{Kind: End},
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_ToolCall(t *testing.T) {
	events := collect("§think:\nI need to list files.§call:\n[{\"name\":\"shell\",\"args\":{\"command\":\"ls\"}}]§execute")
	want := []Event{
		{Kind: Think, Content: "I need to list files."},
		{Kind: Call, Content: `[{"name":"shell","args":{"command":"ls"}}]`},
		{Kind: Execute},
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_MalformedCallJSON(t *testing.T) {
	events := collect("§call:\n{not valid json§execute")
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != Error {
		t.Errorf("events[0].Kind = %v, want Error", events[0].Kind)
	}
	if events[1].Kind != Execute {
		t.Errorf("events[1].Kind = %v, want Execute", events[1].Kind)
	}
}

func TestParse_FalseAlarm(t *testing.T) {
	events := collect("price is §5 today")
	want := []Event{
		{Kind: Respond, Content: "price is "},
		{Kind: Respond, Content: "§5"},
		{Kind: Respond, Content: " today"},
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_NoTerminatorFlushesOpenSection(t *testing.T) {
	events := collect("§think:\nstill going")
	want := []Event{{Kind: Think, Content: "still going"}}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_AmbiguousTailAcrossManyTokens(t *testing.T) {
	events := collect("§", "e", "x", "e", "c", "u", "t", "e")
	want := []Event{{Kind: Execute}}
	if !slices.Equal(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestParse_NilSequenceIsFatal(t *testing.T) {
	events := collect()
	events = nil
	for ev := range Parse(nil) {
		events = append(events, ev)
	}
	if len(events) != 1 || events[0].Kind != Error {
		t.Errorf("events = %+v, want a single Error event", events)
	}
}

func TestParseStream_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tokens := make(chan string)
	out := ParseStream(ctx, tokens)

	go func() {
		tokens <- "§think:\nworking"
		cancel()
	}()

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case _, open := <-out:
		if open {
			t.Error("expected channel to drain and close after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
