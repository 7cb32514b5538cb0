package lock

import (
	"context"
	"testing"
	"time"
)

func TestInProcess_AcquireAndRelease(t *testing.T) {
	l := NewInProcess()
	release, err := l.Acquire(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := l.Acquire(context.Background(), "task-1"); err != ErrAlreadyLocked {
		t.Errorf("second Acquire() error = %v, want ErrAlreadyLocked", err)
	}

	release()

	if _, err := l.Acquire(context.Background(), "task-1"); err != nil {
		t.Errorf("Acquire() after release error = %v, want nil", err)
	}
}

func TestInProcess_DifferentTasksDoNotContend(t *testing.T) {
	l := NewInProcess()
	if _, err := l.Acquire(context.Background(), "task-1"); err != nil {
		t.Fatalf("Acquire(task-1) error = %v", err)
	}
	if _, err := l.Acquire(context.Background(), "task-2"); err != nil {
		t.Errorf("Acquire(task-2) error = %v, want nil", err)
	}
}

func TestWithTimeout_RetriesUntilReleased(t *testing.T) {
	inner := NewInProcess()
	release, err := inner.Acquire(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	w := WithTimeout{Inner: inner, Timeout: 200 * time.Millisecond, Poll: 5 * time.Millisecond}
	if _, err := w.Acquire(context.Background(), "task-1"); err != nil {
		t.Errorf("Acquire() error = %v, want nil after release", err)
	}
}

func TestWithTimeout_GivesUpAfterTimeout(t *testing.T) {
	inner := NewInProcess()
	if _, err := inner.Acquire(context.Background(), "task-1"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	w := WithTimeout{Inner: inner, Timeout: 30 * time.Millisecond, Poll: 5 * time.Millisecond}
	if _, err := w.Acquire(context.Background(), "task-1"); err == nil {
		t.Error("expected timeout error")
	}
}
