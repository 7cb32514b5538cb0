package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/state"
)

// respond runs the Respond step (spec §4.7): produces the final
// user-facing text, appends it to the conversation, and returns it.
func (e *Engine) respond(ctx context.Context, ws *state.Workspace, exec *state.Execution, conv *state.Conversation) string {
	start := time.Now()

	// A stop_reason carries its own already-prepared, user-friendly text
	// (error fallback or forced-completion synthesis); everything else is
	// a normal completion and goes through the branch below (spec §4.7).
	var text string
	if exec.StopReason != state.StopNone {
		text = exec.Response
	} else {
		text = e.synthesizeFromBatch(ctx, ws, conv, exec.LastBatch)
	}

	if e.OutputSchema != nil {
		if validated, err := validateAgainstSchema(text, e.OutputSchema); err == nil {
			text = validated
		} else {
			e.Logger.Warn("response failed output schema validation", "task_id", ws.TaskID, "error", err)
		}
	}

	conv.Append(state.RoleAssistant, text)
	e.emit("respond", exec.TaskID, exec.Iteration, text)
	e.recordPhase(ctx, "respond", start, nil, string(exec.StopReason))
	e.maybeTriggerProfileLearning(ws.UserID, conv)
	return text
}

// synthesizeFromBatch covers the three branches of spec §4.7 that apply
// when Reason ended the loop without already producing final text:
// successes-only, failures-only, and answer-from-knowledge.
func (e *Engine) synthesizeFromBatch(ctx context.Context, ws *state.Workspace, conv *state.Conversation, batch []state.ToolCall) string {
	successes, failures := splitOutcomes(batch)

	switch {
	case len(successes) > 0:
		return e.generateRespond(ctx, ws, conv, respondSuccessPrompt(successes))
	case len(failures) > 0:
		return e.generateRespond(ctx, ws, conv, respondFailurePrompt(failures))
	default:
		return e.generateRespond(ctx, ws, conv, respondKnowledgePrompt(ws))
	}
}

func splitOutcomes(batch []state.ToolCall) (successes, failures []state.ToolCall) {
	for _, c := range batch {
		if c.Outcome == state.OutcomeSuccess {
			successes = append(successes, c)
		} else {
			failures = append(failures, c)
		}
	}
	return
}

// generateRespond issues a single, non-streamed LLM call to produce the
// final text, falling back to a terse synthesized message if the provider
// fails — Respond must always produce a response (spec §4.8 "Respond
// always runs unless cancellation occurred").
func (e *Engine) generateRespond(ctx context.Context, ws *state.Workspace, conv *state.Conversation, instruction string) string {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "Produce the final user-facing response for this task. Be direct; do not use the §-delimited protocol here."},
	}
	for _, m := range conv.Messages() {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: instruction + "\n\nWorkspace:\n" + ws.Compressed(deepModeHistoryWindow)})

	text, err := e.LLM.Generate(ctx, messages)
	if err != nil || strings.TrimSpace(text) == "" {
		e.Logger.Warn("respond generation failed", "task_id", ws.TaskID, "error", err)
		return fallbackRespondText(instruction)
	}
	return text
}

func respondSuccessPrompt(successes []state.ToolCall) string {
	var b strings.Builder
	b.WriteString("Summarize the outcome for the user, incorporating these results:\n")
	for _, c := range successes {
		fmt.Fprintf(&b, "- %s -> %s\n", c.Label(), c.Result)
	}
	return b.String()
}

func respondFailurePrompt(failures []state.ToolCall) string {
	var b strings.Builder
	b.WriteString("All attempted actions failed. Acknowledge this to the user without technical jargon and suggest alternatives:\n")
	for _, c := range failures {
		fmt.Fprintf(&b, "- %s -> %s\n", c.Label(), c.Error)
	}
	return b.String()
}

func respondKnowledgePrompt(ws *state.Workspace) string {
	return "No tools were used this turn. Answer the user's objective directly from your own knowledge and the workspace context."
}

func fallbackRespondText(instruction string) string {
	if strings.Contains(instruction, "failed") {
		return "I wasn't able to complete that. Could you try a different approach or provide more detail?"
	}
	return "I've finished processing your request, but ran into trouble summarizing the result. Let me know if you'd like more detail."
}

// validateAgainstSchema unmarshals text into a fresh value of schema's
// underlying type to confirm it conforms, per spec §4.7's "response text
// is validated by unmarshaling into that struct before being accepted."
func validateAgainstSchema(text string, schema interface{}) (string, error) {
	t := reflect.TypeOf(schema)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	target := reflect.New(t).Interface()

	if err := json.Unmarshal([]byte(text), target); err != nil {
		return "", fmt.Errorf("respond: output does not conform to schema: %w", err)
	}
	out, err := json.Marshal(target)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
