package state

import (
	"context"
	"log/slog"
	"sync"
)

// LearnTrigger identifies what caused a profile-learning pass.
type LearnTrigger string

const (
	TriggerTaskCompleted LearnTrigger = "task_completed"
	TriggerExplicitAsk   LearnTrigger = "explicit_ask"
	TriggerCadence       LearnTrigger = "cadence"
)

// learnEvent is one queued profile-learning request.
type learnEvent struct {
	userID  string
	trigger LearnTrigger
}

// LearnFunc performs one profile-learning pass for userID, given the
// trigger that requested it.
type LearnFunc func(ctx context.Context, userID string, trigger LearnTrigger) error

// ProfileLearner is a bounded background worker that drains queued
// learning requests one at a time, so profile mutation never blocks the
// reasoning loop that triggered it (SPEC_FULL §2.3, §9 supplement).
type ProfileLearner struct {
	log   *slog.Logger
	learn LearnFunc
	queue chan learnEvent
	done  chan struct{}
	once  sync.Once
}

// NewProfileLearner starts a ProfileLearner with the given queue depth.
// Requests submitted beyond the queue depth are dropped (profile
// learning is best-effort, never a blocking dependency of the task it
// was triggered from).
func NewProfileLearner(queueDepth int, learn LearnFunc, log *slog.Logger) *ProfileLearner {
	if log == nil {
		log = slog.Default()
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}
	pl := &ProfileLearner{
		log:   log,
		learn: learn,
		queue: make(chan learnEvent, queueDepth),
		done:  make(chan struct{}),
	}
	go pl.run()
	return pl
}

func (pl *ProfileLearner) run() {
	defer close(pl.done)
	ctx := context.Background()
	for ev := range pl.queue {
		if err := pl.learn(ctx, ev.userID, ev.trigger); err != nil {
			pl.log.Error("profile learning failed", "user_id", ev.userID, "trigger", ev.trigger, "error", err)
		}
	}
}

// Submit enqueues a learning request, dropping it silently if the queue
// is full.
func (pl *ProfileLearner) Submit(userID string, trigger LearnTrigger) {
	select {
	case pl.queue <- learnEvent{userID: userID, trigger: trigger}:
	default:
		pl.log.Warn("profile learner queue full, dropping request", "user_id", userID, "trigger", trigger)
	}
}

// Stop closes the queue and waits for the worker to drain, or for ctx to
// be cancelled, whichever comes first.
func (pl *ProfileLearner) Stop(ctx context.Context) error {
	pl.once.Do(func() { close(pl.queue) })
	select {
	case <-pl.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
