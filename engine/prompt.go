package engine

import (
	"fmt"
	"strings"

	"github.com/iteebz/cogency-sub003/config"
	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/state"
	"github.com/iteebz/cogency-sub003/tool"
)

// systemPrompt instructs the LLM to emit the sole canonical sigil
// delimiter set (spec §9 Open Question, resolved in SPEC_FULL §2.3):
// §think:, §respond:, §call:, §execute, §end.
const systemPrompt = `You are a reasoning agent. Structure every turn using these section markers and no others:

§think: scratch reasoning, not shown to the user
§respond: final user-facing text
§call: a JSON array of {"name": ..., "args": {...}} tool invocations
§execute terminates the turn and requests the calls above be run
§end terminates the turn with no pending calls

Emit a §respond: section with §end when you can answer directly. Emit §call: sections followed by §execute when you need tools. Review what you have already tried before acting again.`

const (
	fastModeHistoryWindow = 3
	deepModeHistoryWindow = 10
)

// buildPrompt composes the Reason prompt per spec §4.5 step 2: conversation
// history (bounded window), the query, the tool registry rendering, the
// compressed workspace, optional knowledge snippets, and a mode-specific
// template. The bounded window is additionally trimmed against
// config.ContextTokenBudget via TokenCounter.
func buildPrompt(
	cfg config.EngineConfig,
	tokens *TokenCounter,
	reg *tool.Registry,
	conv *state.Conversation,
	ws *state.Workspace,
	query string,
	knowledge []*state.KnowledgeArtifact,
) []llm.Message {
	historyWindow := fastModeHistoryWindow
	if ws.Mode == state.ModeDeep {
		historyWindow = deepModeHistoryWindow
	}

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	var historyLines []string
	for _, m := range conv.Messages() {
		historyLines = append(historyLines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	if len(historyLines) > historyWindow {
		historyLines = historyLines[len(historyLines)-historyWindow:]
	}
	if tokens != nil && cfg.ContextTokenBudget > 0 {
		historyLines = tokens.FitWithinBudget(historyLines, cfg.ContextTokenBudget)
	}
	if len(historyLines) > 0 {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "Conversation history:\n" + strings.Join(historyLines, "\n")})
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "Available tools:\n" + renderTools(reg)})
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "Workspace:\n" + ws.Compressed(historyWindow)})

	if len(knowledge) > 0 {
		var kb strings.Builder
		kb.WriteString("Relevant knowledge:\n")
		for _, k := range knowledge {
			fmt.Fprintf(&kb, "- [%s] %s\n", k.Topic, k.Content)
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: kb.String()})
	}

	if ws.Mode == state.ModeDeep {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "Deep mode: include explicit thinking, reflect, and plan sections before you decide."})
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: query})
	return msgs
}

// renderTools renders the registry's name/description/schema/examples/rules
// for prompt inclusion.
func renderTools(reg *tool.Registry) string {
	if reg == nil {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range reg.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		for _, ex := range t.Examples() {
			fmt.Fprintf(&b, "  example: %s\n", ex)
		}
		for _, r := range t.Rules() {
			fmt.Fprintf(&b, "  rule: %s\n", r)
		}
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return b.String()
}

// buildCorrectionPrompt quotes the offending raw call-section text and asks
// for a corrected §call: section only (spec §4.5 step 4 [SUPPLEMENT]).
func buildCorrectionPrompt(rawSection, reason string) llm.Message {
	return llm.Message{
		Role: llm.RoleUser,
		Content: fmt.Sprintf(
			"Your last §call: section failed to parse (%s). The offending text was:\n\n%s\n\nEmit a corrected §call: section containing only valid JSON, followed by §execute.",
			reason, rawSection,
		),
	}
}

// isTrivialQuery reports whether query is simple enough to skip automatic
// knowledge retrieval (spec §4.5 step 2: "simple greetings / small-arithmetic
// queries skip retrieval").
func isTrivialQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	trivialGreetings := []string{"hi", "hello", "hey", "thanks", "thank you", "bye", "goodbye"}
	for _, g := range trivialGreetings {
		if q == g {
			return true
		}
	}
	if len(q) <= 12 && isArithmeticish(q) {
		return true
	}
	return false
}

// isArithmeticish is a conservative check for short strings consisting
// only of digits, whitespace, and +-*/=?.
func isArithmeticish(q string) bool {
	hasDigit := false
	for _, r := range q {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(" +-*/=?.", r):
		default:
			return false
		}
	}
	return hasDigit
}
