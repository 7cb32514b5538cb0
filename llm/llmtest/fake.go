// Package llmtest provides a scriptable fake llm.LLM for engine tests,
// standing in for the external model collaborator the core never
// implements concretely.
package llmtest

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/iteebz/cogency-sub003/llm"
)

// Fake is a scriptable llm.LLM: each call to Generate/Stream consumes the
// next entry from Responses, in order. Calling past the end of Responses
// is an error, surfacing test setup mistakes immediately rather than
// silently looping.
type Fake struct {
	Responses []string
	// Err, if set, is returned instead of consuming a Responses entry.
	Err error

	mu    sync.Mutex
	calls int
	Seen  [][]llm.Message
}

// New constructs a Fake that replies with responses in order.
func New(responses ...string) *Fake {
	return &Fake{Responses: responses}
}

func (f *Fake) next(messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Seen = append(f.Seen, messages)
	if f.Err != nil {
		return "", f.Err
	}
	if f.calls >= len(f.Responses) {
		return "", fmt.Errorf("llmtest: Fake called %d times but only %d responses scripted", f.calls+1, len(f.Responses))
	}
	r := f.Responses[f.calls]
	f.calls++
	return r, nil
}

func (f *Fake) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return f.next(messages)
}

func (f *Fake) Stream(ctx context.Context, messages []llm.Message) (iter.Seq[string], error) {
	resp, err := f.next(messages)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		// Token-at-a-time emission exercises the parser's split-delimiter
		// reassembly the same way a real streaming provider would.
		for _, r := range resp {
			if !yield(string(r)) {
				return
			}
		}
	}, nil
}

func (f *Fake) ModelName() string { return "llmtest-fake" }
func (f *Fake) Close() error      { return nil }

// CallCount returns how many scripted responses Generate/Stream have
// served; calls that returned an error are not counted (Seen records every
// call).
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
