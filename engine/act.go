package engine

import (
	"context"
	"errors"
	"time"

	"github.com/iteebz/cogency-sub003/state"
	"github.com/iteebz/cogency-sub003/tool"
)

// act runs one Act turn (spec §4.6): dispatches exec's pending call batch
// through the Scheduler, folds the results into the completed history, and
// stamps the last thought's action outcome for the next Reason turn.
func (e *Engine) act(ctx context.Context, exec *state.Execution, ws *state.Workspace) {
	start := time.Now()
	calls := exec.PendingCalls

	res := e.Scheduler.Run(ctx, calls)
	exec.PendingCalls = res.Successful
	exec.PendingCalls = append(exec.PendingCalls, res.Failures...)
	exec.LastBatch = append([]state.ToolCall{}, exec.PendingCalls...)
	exec.CompletePendingCalls()

	ws.SetLastActionOutcome(actionOutcome(res))

	e.emit("act", exec.TaskID, exec.Iteration, res)
	e.recordPhase(ctx, "act", start, batchErr(res), string(ws.Mode))
}

// actionOutcome maps a Scheduler batch result onto the ActionOutcome
// recorded against the Workspace's last thought (spec §4.6 step 4).
func actionOutcome(res tool.BatchResult) state.ActionOutcome {
	switch {
	case res.FailedCount == 0 && res.SuccessfulCount > 0:
		return state.ActionSuccess
	case res.SuccessfulCount == 0 && res.FailedCount > 0:
		return state.ActionFailure
	case res.SuccessfulCount > 0 && res.FailedCount > 0:
		return state.ActionPartial
	default:
		return state.ActionNone
	}
}

func batchErr(res tool.BatchResult) error {
	if res.FailedCount == 0 {
		return nil
	}
	return errors.New(res.Failures[len(res.Failures)-1].Error)
}
