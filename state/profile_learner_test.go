package state

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestProfileLearner_DrainsSubmittedRequests(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	pl := NewProfileLearner(4, func(ctx context.Context, userID string, trigger LearnTrigger) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, userID)
		return nil
	}, nil)

	pl.Submit("user-1", TriggerTaskCompleted)
	pl.Submit("user-2", TriggerCadence)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Errorf("seen = %v, want 2 entries", seen)
	}
}

func TestProfileLearner_SubmitAfterQueueFullDropsSilently(t *testing.T) {
	block := make(chan struct{})
	pl := NewProfileLearner(1, func(ctx context.Context, userID string, trigger LearnTrigger) error {
		<-block
		return nil
	}, nil)

	// first request occupies the worker, second fills the 1-deep queue,
	// further submissions must not block the caller.
	pl.Submit("user-1", TriggerTaskCompleted)
	pl.Submit("user-2", TriggerTaskCompleted)
	pl.Submit("user-3", TriggerTaskCompleted)

	close(block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
