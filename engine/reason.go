package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/protocol"
	"github.com/iteebz/cogency-sub003/state"
)

// reason runs one Reason turn (spec §4.5). It mutates ws and exec in
// place and returns the extracted Decision.
func (e *Engine) reason(ctx context.Context, ws *state.Workspace, exec *state.Execution, conv *state.Conversation, query string) Decision {
	start := time.Now()

	exec.AdvanceIteration()
	lastAllowedTurn := exec.Iteration == exec.MaxIterations

	knowledge := e.retrieveKnowledge(ctx, ws, query)
	messages := buildPrompt(e.Config, e.Tokens, e.Tools, conv, ws, query, knowledge)

	d, err := e.streamDecision(ctx, messages)
	if err != nil {
		exec.Stop(state.StopLLMError, "I ran into a problem reaching the model. Please try again in a moment.")
		e.recordPhase(ctx, "reason", start, err, string(ws.Mode))
		return d
	}

	if d.Kind == DecisionParseErr {
		d = e.retryOnParseError(ctx, messages, d)
	}
	if d.Kind == DecisionParseErr {
		exec.Stop(state.StopParseErrorExceeded, "I couldn't produce a valid tool call after a retry. Let me know if you'd like to try a different approach.")
		e.recordPhase(ctx, "reason", start, fmt.Errorf("%s", d.ParseErrorReason), string(ws.Mode))
		return d
	}

	e.applyModeSwitch(ws, exec, d)

	thought := state.Thought{
		Thinking:   d.Thinking,
		Planning:   d.Planning,
		Reflection: d.Reflection,
		Approach:   ws.Approach,
		ToolCalls:  d.Calls,
	}
	ws.AddThought(thought)

	switch d.Kind {
	case DecisionDirect:
		// d.Text is Reason's own draft; the final user-facing text is
		// still produced by the dedicated Respond step (spec §4.7), so it
		// is not copied into exec.Response here.
		exec.QueueCalls(nil)
	case DecisionActions:
		if lastAllowedTurn {
			summary := e.synthesizeCompletion(exec)
			exec.Stop(state.StopMaxIterations, summary)
			exec.PendingCalls = nil
			d = Decision{Kind: DecisionDirect, Text: summary}
		} else {
			exec.QueueCalls(d.Calls)
		}
	default:
		exec.QueueCalls(nil)
	}

	e.emit("reason", exec.TaskID, exec.Iteration, d)
	e.recordPhase(ctx, "reason", start, nil, string(ws.Mode))
	return d
}

// streamDecision calls the LLM and decodes its streamed output into a
// Decision, retrying once on a hard LLM failure (maxLLMRetries).
func (e *Engine) streamDecision(ctx context.Context, messages []llm.Message) (Decision, error) {
	var lastErr error
	for attempt := 0; attempt <= maxLLMRetries; attempt++ {
		seq, err := e.LLM.Stream(ctx, messages)
		if err != nil {
			lastErr = err
			continue
		}
		return DecodeDecision(protocol.Parse(seq)), nil
	}
	return Decision{}, lastErr
}

// retryOnParseError issues the one allowed correction retry (spec §4.5
// step 4 [SUPPLEMENT]): it quotes the offending raw call-section text and
// asks for a corrected §call: section only.
func (e *Engine) retryOnParseError(ctx context.Context, messages []llm.Message, failed Decision) Decision {
	correction := append(append([]llm.Message{}, messages...), buildCorrectionPrompt(failed.RawCallSection, failed.ParseErrorReason))

	for attempt := 0; attempt < maxParseRetries; attempt++ {
		seq, err := e.LLM.Stream(ctx, correction)
		if err != nil {
			return failed
		}
		retried := DecodeDecision(protocol.Parse(seq))
		if retried.Kind != DecisionParseErr {
			return retried
		}
		failed = retried
	}
	return failed
}

// applyModeSwitch applies a Reason-issued mode switch directive if the
// cooldown has elapsed and a non-empty reason was given (spec §4.5 step
// 5). An external directive racing the same turn is impossible by
// construction (§9 Open Question, resolved in SPEC_FULL §2.3) since only
// Reason's own in-turn directive can set ModeSwitch.
func (e *Engine) applyModeSwitch(ws *state.Workspace, exec *state.Execution, d Decision) {
	if d.ModeSwitch == "" || d.ModeSwitchReason == "" {
		return
	}
	cooldown := e.Config.ModeSwitchCooldownIters
	if cooldown <= 0 {
		cooldown = 1
	}
	if exec.Iteration-exec.ModeSwitchIteration < cooldown {
		return
	}
	if err := ws.SetMode(state.Mode(d.ModeSwitch)); err == nil {
		exec.ModeSwitchIteration = exec.Iteration
	}
}

// retrieveKnowledge performs automatic retrieval (spec §4.5 step 2:
// top-AutomaticRetrievalTopK artifacts above KnowledgeRetrievalThreshold),
// skipped entirely for trivial queries.
func (e *Engine) retrieveKnowledge(ctx context.Context, ws *state.Workspace, query string) []*state.KnowledgeArtifact {
	if e.Repo == nil || isTrivialQuery(query) {
		return nil
	}
	results, err := e.Repo.SearchKnowledge(ctx, ws.UserID, query, e.Config.AutomaticRetrievalTopK, e.Config.KnowledgeRetrievalThreshold)
	if err != nil {
		e.Logger.Warn("knowledge retrieval failed", "task_id", ws.TaskID, "error", err)
		return nil
	}
	return results
}

// synthesizeCompletion builds the forced-completion summary from the last
// forcedCompletionSummaryWindow completed calls (spec §4.5 step 1, §8
// scenario 5: phrase "Task completed after N iterations").
func (e *Engine) synthesizeCompletion(exec *state.Execution) string {
	completed := exec.CompletedCalls
	if len(completed) > forcedCompletionSummaryWindow {
		completed = completed[len(completed)-forcedCompletionSummaryWindow:]
	}

	if len(completed) == 0 {
		return fmt.Sprintf("Task completed after %d iterations. I reached the iteration budget without further progress to report.", exec.Iteration)
	}

	summary := fmt.Sprintf("Task completed after %d iterations. Summary of recent actions:\n", exec.Iteration)
	for _, c := range completed {
		if c.Outcome == state.OutcomeSuccess {
			summary += fmt.Sprintf("- %s succeeded: %s\n", c.Label(), truncate(c.Result, 200))
		} else {
			summary += fmt.Sprintf("- %s failed: %s\n", c.Label(), c.Error)
		}
	}
	return summary
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
