package tool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iteebz/cogency-sub003/config"
	"github.com/iteebz/cogency-sub003/state"
)

// ExecutionMode records how a call batch was dispatched.
type ExecutionMode string

const (
	ModeParallel   ExecutionMode = "parallel"
	ModeSequential ExecutionMode = "sequential"
)

// BatchResult is the Scheduler's aggregate output surfaced back into the
// prompt for the next Reason turn (spec §4.3).
type BatchResult struct {
	Successful      []state.ToolCall
	Failures        []state.ToolCall
	Summary         string
	SuccessfulCount int
	FailedCount     int
	TotalExecuted   int
	ExecutionMode   ExecutionMode
}

// CallEvent is emitted once per dispatched call for observability (spec
// §4.3 "every call emits one event with {tool, args, outcome, duration}").
type CallEvent struct {
	Tool     string
	Args     map[string]interface{}
	Outcome  state.Outcome
	Duration time.Duration
}

// Scheduler dispatches a batch of tool calls from Reason under the
// dependency heuristic of spec §4.3.
type Scheduler struct {
	Registry *Registry
	Config   config.ToolConfig
	OnEvent  func(CallEvent)
}

// NewScheduler constructs a Scheduler over reg governed by cfg.
func NewScheduler(reg *Registry, cfg config.ToolConfig) *Scheduler {
	return &Scheduler{Registry: reg, Config: cfg}
}

// mutatorVerbs lists the filesystem-mutation verbs (create, write, edit,
// delete). isSequential does not consult it: the dependency heuristic
// classifies each call by Tool.IsFilesystemMutator alone.
var mutatorVerbs = []string{"create", "write", "edit", "delete"}

// isSequential applies spec §4.3's dependency heuristic: a batch containing
// both a filesystem-mutating tool and a shell-executing tool is sequential;
// otherwise parallel. When SequentialDependencyHeuristic is off, every
// batch is parallel.
func (s *Scheduler) isSequential(calls []state.ToolCall) bool {
	if !s.Config.SequentialDependencyHeuristic {
		return false
	}
	hasMutator, hasShell := false, false
	for _, c := range calls {
		t, ok := s.Registry.Get(c.Name)
		if !ok {
			continue
		}
		if t.IsFilesystemMutator() {
			hasMutator = true
		}
		if t.IsShellExecutor() {
			hasShell = true
		}
	}
	return hasMutator && hasShell
}

// Run dispatches calls under the dependency heuristic and returns the
// aggregate BatchResult. calls are mutated in place (Succeed/Fail) as in
// Execution's CompletedCalls convention.
func (s *Scheduler) Run(ctx context.Context, calls []state.ToolCall) BatchResult {
	if s.isSequential(calls) {
		return s.runSequential(ctx, calls)
	}
	return s.runParallel(ctx, calls)
}

func (s *Scheduler) runSequential(ctx context.Context, calls []state.ToolCall) BatchResult {
	var res BatchResult
	res.ExecutionMode = ModeSequential
	for i := range calls {
		s.dispatch(ctx, &calls[i])
		res.TotalExecuted++
		if calls[i].Outcome == state.OutcomeSuccess {
			res.Successful = append(res.Successful, calls[i])
		} else {
			res.Failures = append(res.Failures, calls[i])
		}
	}
	res.SuccessfulCount = len(res.Successful)
	res.FailedCount = len(res.Failures)
	res.Summary = summarize(res)
	return res
}

// runParallel dispatches all calls concurrently via errgroup, collecting
// each call's own outcome into the result slot rather than returning it
// from the Go closure, so one call's failure never cancels its siblings —
// grounded on pkg/agent/workflowagent/parallel.go's runParallel pattern,
// generalized from sub-agents to tool calls. Concurrency is bounded by a
// semaphore sized from config.max_parallel_tools (0 = unbounded).
func (s *Scheduler) runParallel(ctx context.Context, calls []state.ToolCall) BatchResult {
	var res BatchResult
	res.ExecutionMode = ModeParallel

	eg, egCtx := errgroup.WithContext(ctx)
	if s.Config.MaxParallelTools > 0 {
		eg.SetLimit(s.Config.MaxParallelTools)
	}

	for i := range calls {
		i := i
		eg.Go(func() error {
			s.dispatch(egCtx, &calls[i])
			return nil
		})
	}
	_ = eg.Wait()

	res.TotalExecuted = len(calls)
	for _, c := range calls {
		if c.Outcome == state.OutcomeSuccess {
			res.Successful = append(res.Successful, c)
		} else {
			res.Failures = append(res.Failures, c)
		}
	}
	res.SuccessfulCount = len(res.Successful)
	res.FailedCount = len(res.Failures)
	res.Summary = summarize(res)
	return res
}

// dispatch executes one call in place, handling the per-call result rules
// of spec §4.3: unknown tool is a synthetic failure, an execution exception
// is a failure carrying the exception message, success records the result.
func (s *Scheduler) dispatch(ctx context.Context, call *state.ToolCall) {
	start := time.Now()
	t, ok := s.Registry.Get(call.Name)
	if !ok {
		call.Fail(fmt.Errorf("Tool '%s' not found", call.Name), time.Since(start))
		s.emit(*call)
		return
	}

	result, err := s.safeExecute(ctx, t, call.Args)
	dur := time.Since(start)
	switch {
	case err != nil:
		call.Fail(err, dur)
	case !result.Success:
		call.Fail(fmt.Errorf("%s", result.Message), dur)
	default:
		call.Succeed(fmt.Sprint(result.Data), dur)
	}
	s.emit(*call)
}

// safeExecute recovers a panicking tool implementation into an error so one
// misbehaving tool never takes down the batch or the engine.
func (s *Scheduler) safeExecute(ctx context.Context, t Tool, args map[string]interface{}) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}

func (s *Scheduler) emit(call state.ToolCall) {
	if s.OnEvent == nil {
		return
	}
	s.OnEvent(CallEvent{Tool: call.Name, Args: call.Args, Outcome: call.Outcome, Duration: call.Duration})
}

func summarize(res BatchResult) string {
	return fmt.Sprintf("%d/%d tool calls succeeded (%s)", res.SuccessfulCount, res.TotalExecuted, res.ExecutionMode)
}
