// Package engine implements the Reason -> (Act -> Reason)* -> Respond loop
// (spec §4.8): the Execution Engine that sequences phases and manages task
// lifecycle over the three-horizon state model.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/iteebz/cogency-sub003/config"
	"github.com/iteebz/cogency-sub003/lock"
	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/metrics"
	"github.com/iteebz/cogency-sub003/state"
	"github.com/iteebz/cogency-sub003/store"
	"github.com/iteebz/cogency-sub003/tool"
)

// Retry budgets (spec §9 Open Question "Precise retry budget", resolved in
// SPEC_FULL §2.3): one retry for LLM hard failures, one retry for
// parser/JSON failures, both non-configurable constants at the engine
// boundary.
const (
	maxLLMRetries   = 1
	maxParseRetries = 1

	// forcedCompletionSummaryWindow bounds how many of the most recent
	// completed_calls feed the forced-completion synthesis (spec §4.5
	// step 1, §8 scenario 5: "the last 3 completed_calls").
	forcedCompletionSummaryWindow = 3

	maxQueryLength = 8000
)

// Engine drives one task's Reason/Act/Respond loop. It holds only
// collaborator seams; it owns no LLM/tool/store implementation itself.
type Engine struct {
	LLM       llm.LLM
	Tools     *tool.Registry
	Scheduler *tool.Scheduler
	Repo      *store.Repo
	Lock      lock.TaskLock
	Config    config.EngineConfig
	Tokens    *TokenCounter

	Metrics metrics.Sink
	Tracer  trace.Tracer
	Meter   metric.Meter
	Logger  *slog.Logger

	// ProfileLearner drains cadence-triggered background profile updates
	// (spec §2.3); New wires it to e.learnProfile, so it is always
	// non-nil for an engine constructed via New.
	ProfileLearner *state.ProfileLearner

	// OutputSchema, when non-nil, is a zero-value prototype of the struct
	// Respond's text must conform to (spec §4.7's optional JSON output
	// schema). validateAgainstSchema checks the text by unmarshaling it into
	// a fresh value of that type with encoding/json; no JSON Schema is
	// generated for it.
	OutputSchema interface{}

	OnEvent func(Event)
}

// New constructs an Engine with defaulted optional seams (metrics.NoOp,
// an in-process TaskLock, slog.Default).
func New(llmClient llm.LLM, tools *tool.Registry, scheduler *tool.Scheduler, repo *store.Repo, cfg config.EngineConfig) *Engine {
	e := &Engine{
		LLM:       llmClient,
		Tools:     tools,
		Scheduler: scheduler,
		Repo:      repo,
		Lock:      lock.NewInProcess(),
		Config:    cfg,
		Metrics:   metrics.NoOp{},
		Logger:    slog.Default(),
	}
	e.ProfileLearner = state.NewProfileLearner(profileLearnerQueueDepth, e.learnProfile, e.Logger)
	return e
}

// Close stops the background ProfileLearner, draining any queued requests
// before ctx is done.
func (e *Engine) Close(ctx context.Context) error {
	if e.ProfileLearner == nil {
		return nil
	}
	return e.ProfileLearner.Stop(ctx)
}

// ValidateQuery rejects empty, oversized, or control-character-laden
// queries before any task state is created (spec §2.3 [SUPPLEMENT],
// grounded on the original's security.py validation; §8 "Empty query:
// rejected at the boundary; no state created").
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("engine: query must not be empty")
	}
	if len(query) > maxQueryLength {
		return fmt.Errorf("engine: query exceeds maximum length of %d", maxQueryLength)
	}
	for _, r := range query {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return fmt.Errorf("engine: query contains disallowed control characters")
		}
	}
	return nil
}

// Result is what StartTask/ContinueTask return to the caller.
type Result struct {
	TaskID     string
	Response   string
	StopReason state.StopReason
}

// StartTask creates a fresh task for query per spec §4.8: a new task_id, a
// fresh Workspace with objective = query, a fresh Execution, loading the
// user's Profile and persisting the empty Workspace before running the
// loop.
func (e *Engine) StartTask(ctx context.Context, query, userID string) (Result, error) {
	if err := ValidateQuery(query); err != nil {
		return Result{}, err
	}

	profile, err := e.loadOrCreateProfile(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("engine: load profile: %w", err)
	}

	conv := state.NewConversation(userID)
	ws := state.NewWorkspace(userID, conv.ConversationID, query)
	ws.Mode = state.Mode(e.Config.Mode)
	exec := state.NewExecution(ws.TaskID, e.Config.MaxIterations)

	if err := e.Repo.SaveWorkspace(ctx, ws); err != nil {
		e.Logger.Warn("save workspace failed", "task_id", ws.TaskID, "error", err)
	}

	conv.Append(state.RoleUser, query)

	return e.run(ctx, ws, exec, conv, profile, query)
}

// ContinueTask resumes an existing task, guarded by the TaskLock resume
// invariant of spec §5: a task cannot be resumed while an engine is still
// driving it on another worker.
func (e *Engine) ContinueTask(ctx context.Context, taskID, userID string) (Result, error) {
	release, err := e.Lock.Acquire(ctx, taskID)
	if err != nil {
		return Result{}, fmt.Errorf("engine: acquire task lock: %w", err)
	}
	defer release()

	ws, err := e.Repo.LoadWorkspace(ctx, taskID, userID)
	if err != nil {
		return Result{}, fmt.Errorf("engine: load workspace: %w", err)
	}
	profile, err := e.loadOrCreateProfile(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("engine: load profile: %w", err)
	}
	conv, err := e.Repo.LoadConversation(ctx, ws.ConversationID, userID)
	if err != nil {
		conv = state.NewConversation(userID)
	}

	exec := state.NewExecution(ws.TaskID, e.Config.MaxIterations)

	return e.run(ctx, ws, exec, conv, profile, ws.Objective)
}

func (e *Engine) loadOrCreateProfile(ctx context.Context, userID string) (*state.Profile, error) {
	profile, err := e.Repo.LoadProfile(ctx, userID)
	if err == store.ErrNotFound {
		return state.NewProfile(userID), nil
	}
	return profile, err
}

// run drives the Reason -> (Act -> Reason)* -> Respond loop (spec §4.8).
func (e *Engine) run(ctx context.Context, ws *state.Workspace, exec *state.Execution, conv *state.Conversation, profile *state.Profile, query string) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			e.persist(ctx, ws)
			return Result{}, err
		}

		d := e.reason(ctx, ws, exec, conv, query)
		e.persist(ctx, ws)

		if exec.Done() {
			break
		}
		if len(exec.PendingCalls) == 0 {
			if d.Kind != DecisionDirect {
				exec.Stop(state.StopNoActions, "I wasn't able to determine a response. Could you rephrase your request?")
			}
			break
		}

		e.act(ctx, exec, ws)
		e.persist(ctx, ws)
	}

	resp := e.respond(ctx, ws, exec, conv)
	e.persist(ctx, ws)

	return Result{TaskID: ws.TaskID, Response: resp, StopReason: exec.StopReason}, nil
}

func (e *Engine) persist(ctx context.Context, ws *state.Workspace) {
	if e.Repo == nil {
		return
	}
	if err := e.Repo.SaveWorkspace(ctx, ws); err != nil {
		e.Logger.Warn("save workspace failed", "task_id", ws.TaskID, "error", err)
	}
}

// Event is emitted per-phase to an optional observer (spec §6 "Event
// stream (produced)").
type Event struct {
	Kind     string
	TaskID   string
	Iteration int
	Payload  interface{}
}

func (e *Engine) emit(kind string, taskID string, iteration int, payload interface{}) {
	if e.OnEvent == nil {
		return
	}
	e.OnEvent(Event{Kind: kind, TaskID: taskID, Iteration: iteration, Payload: payload})
}

// recordPhase records a completed phase's duration/error against the
// counter-based metrics Sink and, when a Tracer is configured, wraps the
// phase in a span named after it (spec §6: "the engine wraps each phase
// ... in a span named after the phase"). The span is backdated to start
// via trace.WithTimestamp since recordPhase runs after the phase body.
func (e *Engine) recordPhase(ctx context.Context, phase string, start time.Time, err error, mode string) {
	dur := time.Since(start)

	if e.Tracer != nil {
		_, span := e.Tracer.Start(ctx, phase, trace.WithTimestamp(start))
		if err != nil {
			span.RecordError(err)
		}
		span.End(trace.WithTimestamp(time.Now()))
	}

	if e.Metrics == nil {
		return
	}
	switch phase {
	case "reason":
		e.Metrics.RecordReason(ctx, mode, dur, err)
	case "act":
		e.Metrics.RecordAct(ctx, mode, dur, err)
	case "respond":
		e.Metrics.RecordRespond(ctx, mode, dur)
	}
}
