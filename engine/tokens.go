package engine

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter bounds the Reason context window in tokens rather than
// message count, grounded on pkg/utils/tokens.go's TokenCounter,
// narrowed to the single encoding the engine needs.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
	mu  sync.Mutex
}

// NewTokenCounter builds a counter for model, falling back to cl100k_base
// when the model has no registered encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TokenCounter{enc: enc}, nil
}

// Count returns the token length of text.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.enc.Encode(text, nil, nil))
}

// FitWithinBudget selects as many of the most recent lines as fit within
// budget tokens, preserving chronological order, mirroring
// TokenCounter.FitWithinLimit's most-recent-first selection.
func (tc *TokenCounter) FitWithinBudget(lines []string, budget int) []string {
	if budget <= 0 || len(lines) == 0 {
		return lines
	}
	var fitted []string
	used := 0
	for i := len(lines) - 1; i >= 0; i-- {
		n := tc.Count(lines[i])
		if used+n > budget {
			break
		}
		fitted = append([]string{lines[i]}, fitted...)
		used += n
	}
	return fitted
}
