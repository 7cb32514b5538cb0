package state

// StopReason records why an Execution terminated.
type StopReason string

const (
	StopNone               StopReason = ""
	StopMaxIterations      StopReason = "max_iterations"
	StopNoActions          StopReason = "no_actions"
	StopLLMError           StopReason = "llm_error"
	StopParseErrorExceeded StopReason = "parse_error_exceeded"
)

// Execution is the Horizon 3, task-scoped, ephemeral entity (spec §3):
// the in-flight iteration state of a single reason-act cycle. It is never
// persisted; a crash mid-task drops it entirely and the task restarts
// from the last persisted Workspace.
type Execution struct {
	TaskID           string     `json:"task_id"`
	Iteration        int        `json:"iteration"`
	MaxIterations    int        `json:"max_iterations"`
	PendingCalls     []ToolCall `json:"pending_calls"`
	CompletedCalls   []ToolCall `json:"completed_calls"`
	StopReason       StopReason `json:"stop_reason"`
	Response         string     `json:"response"`
	UserErrorMessage string     `json:"user_error_message,omitempty"`

	// ModeSwitchIteration is the iteration of the last applied mode
	// switch, enforcing the "at most once every two iterations" cooldown
	// of spec §4.5 step 5. Zero means no switch has happened yet.
	ModeSwitchIteration int `json:"mode_switch_iteration,omitempty"`

	// LastBatch holds the most recent Act call's resolved calls, scratch
	// state consumed by Respond's branching (spec §4.7: "successful calls
	// in the latest batch" / "only failures in the latest batch").
	LastBatch []ToolCall `json:"-"`
}

// NewExecution creates a fresh, iteration-zero Execution bounded by
// maxIterations.
func NewExecution(taskID string, maxIterations int) *Execution {
	return &Execution{
		TaskID:         taskID,
		MaxIterations:  maxIterations,
		PendingCalls:   make([]ToolCall, 0),
		CompletedCalls: make([]ToolCall, 0),
	}
}

// AdvanceIteration increments the iteration counter and reports whether
// the budget is exhausted.
func (e *Execution) AdvanceIteration() bool {
	e.Iteration++
	return e.Iteration >= e.MaxIterations
}

// QueueCalls replaces the pending call batch for this iteration.
func (e *Execution) QueueCalls(calls []ToolCall) {
	e.PendingCalls = calls
}

// CompletePendingCalls moves the pending batch (now resolved in place via
// ToolCall.Succeed/Fail) into the completed history and clears it.
func (e *Execution) CompletePendingCalls() {
	e.CompletedCalls = append(e.CompletedCalls, e.PendingCalls...)
	e.PendingCalls = nil
}

// Stop marks the execution terminal.
func (e *Execution) Stop(reason StopReason, response string) {
	e.StopReason = reason
	e.Response = response
}

// Done reports whether the execution has reached a terminal state.
func (e *Execution) Done() bool {
	return e.StopReason != StopNone
}
