package llmtest

import (
	"context"
	"strings"
	"testing"

	"github.com/iteebz/cogency-sub003/llm"
)

func TestFake_GenerateReturnsScriptedResponses(t *testing.T) {
	f := New("first", "second")

	got, err := f.Generate(context.Background(), nil)
	if err != nil || got != "first" {
		t.Fatalf("Generate() = %q, %v, want first, nil", got, err)
	}
	got, err = f.Generate(context.Background(), nil)
	if err != nil || got != "second" {
		t.Fatalf("Generate() = %q, %v, want second, nil", got, err)
	}
}

func TestFake_ExhaustedResponsesErrors(t *testing.T) {
	f := New("only")
	if _, err := f.Generate(context.Background(), nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := f.Generate(context.Background(), nil); err == nil {
		t.Error("expected error once responses are exhausted")
	}
}

func TestFake_StreamEmitsTokenByToken(t *testing.T) {
	f := New("hi")
	seq, err := f.Stream(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hello"}})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var sb strings.Builder
	for tok := range seq {
		sb.WriteString(tok)
	}
	if sb.String() != "hi" {
		t.Errorf("reassembled stream = %q, want hi", sb.String())
	}
	if f.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1", f.CallCount())
	}
}
