// Package llm defines the model-generation boundary the engine calls
// against: a uniform interface over whatever concrete provider is wired in
// (spec §1: "LLM providers ... specified only where the core calls them").
package llm

import (
	"context"
	"iter"
)

// Role mirrors state.Role for message turns passed to a provider, kept
// independent of the state package so llm has no upward import.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation context sent to the provider.
type Message struct {
	Role    Role
	Content string
}

// LLM is the uniform generation contract, grounded on llms/registry.go's
// LLMProvider, generalized with context.Context cancellation and a richer
// message list in place of a single pre-built prompt string.
type LLM interface {
	// Generate produces a complete response for the given message history.
	Generate(ctx context.Context, messages []Message) (string, error)

	// Stream produces a response incrementally as a sequence of text
	// tokens, consumed directly by protocol.Parse.
	Stream(ctx context.Context, messages []Message) (iter.Seq[string], error)

	ModelName() string
	Close() error
}

// Session is implemented by providers that support a stateful connection
// across multiple turns (e.g. a persistent streaming RPC), an optional
// capability beyond the stateless LLM contract.
type Session interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, messages []Message) (iter.Seq[string], error)
	Close() error
}
