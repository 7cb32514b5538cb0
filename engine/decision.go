package engine

import (
	"encoding/json"
	"fmt"
	"iter"

	"github.com/iteebz/cogency-sub003/config"
	"github.com/iteebz/cogency-sub003/protocol"
	"github.com/iteebz/cogency-sub003/state"
)

// DecisionKind is the tagged union discriminant spec §9 calls for ("Dynamic
// decision format -> typed events"): a Go sum type via a Kind enum plus
// payload fields, the idiomatic substitute for Decision = DirectResponse |
// Actions | ParseError.
type DecisionKind string

const (
	DecisionNone      DecisionKind = "none"
	DecisionDirect    DecisionKind = "direct"
	DecisionActions   DecisionKind = "actions"
	DecisionParseErr  DecisionKind = "parse_error"
)

// switchModeToolName is a reserved call name: the LLM requests a mode
// switch by including {"name": "__switch_mode__", "args": {"mode": ...,
// "reason": ...}} inside an ordinary §call: section, reusing the sole
// canonical call-array mechanism instead of inventing a second sigil.
const switchModeToolName = "__switch_mode__"

// Decision is the engine's typed extraction of one Reason turn's LLM
// output (spec §4.5 step 4).
type Decision struct {
	Kind DecisionKind

	Thinking   string
	Planning   string
	Reflection string
	Text       string // respond section text, populated for DecisionDirect

	Calls []state.ToolCall // populated for DecisionActions

	ModeSwitch       config.Mode // non-empty if a switch_mode directive was seen
	ModeSwitchReason string

	ParseErrorReason string // populated for DecisionParseErr
	RawCallSection   string // the offending raw text, for buildCorrectionPrompt
}

type rawCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// DecodeDecision consumes a protocol event stream and extracts one
// Decision, per spec §4.5 step 4's "think/respond/call/execute/end"
// grammar. It returns as soon as the stream yields a terminal event
// (execute, end) or is exhausted.
func DecodeDecision(events iter.Seq[protocol.Event]) Decision {
	var d Decision
	var lastCallRaw string

	for ev := range events {
		switch ev.Kind {
		case protocol.Think:
			d.Thinking += ev.Content
		case protocol.Respond:
			d.Text += ev.Content
		case protocol.Call:
			lastCallRaw = ev.Content
			calls, modeSwitch, modeReason, err := parseCalls(ev.Content)
			if err != nil {
				d.Kind = DecisionParseErr
				d.ParseErrorReason = err.Error()
				d.RawCallSection = ev.Content
				return d
			}
			d.Calls = append(d.Calls, calls...)
			if modeSwitch != "" {
				d.ModeSwitch = modeSwitch
				d.ModeSwitchReason = modeReason
			}
		case protocol.Execute:
			if len(d.Calls) > 0 {
				d.Kind = DecisionActions
			} else if d.Text != "" {
				d.Kind = DecisionDirect
			} else {
				d.Kind = DecisionNone
			}
			return d
		case protocol.End:
			if d.Text != "" {
				d.Kind = DecisionDirect
			} else {
				d.Kind = DecisionNone
			}
			return d
		case protocol.Error:
			d.Kind = DecisionParseErr
			d.ParseErrorReason = ev.Content
			d.RawCallSection = lastCallRaw
			return d
		}
	}

	// Stream exhausted with no terminator: flush whatever was accumulated,
	// per spec §8 "a stream that ends with no terminator must flush any
	// open section as its current type and complete gracefully."
	switch {
	case len(d.Calls) > 0:
		d.Kind = DecisionActions
	case d.Text != "":
		d.Kind = DecisionDirect
	default:
		d.Kind = DecisionNone
	}
	return d
}

// parseCalls parses a §call: section's JSON array, splitting out any
// switch_mode directive from the executable tool calls.
func parseCalls(raw string) (calls []state.ToolCall, modeSwitch config.Mode, modeReason string, err error) {
	var rawCalls []rawCall
	if jsonErr := json.Unmarshal([]byte(raw), &rawCalls); jsonErr != nil {
		return nil, "", "", fmt.Errorf("invalid JSON: %w", jsonErr)
	}

	for _, rc := range rawCalls {
		if rc.Name == switchModeToolName {
			if m, ok := rc.Args["mode"].(string); ok {
				modeSwitch = config.Mode(m)
			}
			if r, ok := rc.Args["reason"].(string); ok {
				modeReason = r
			}
			continue
		}
		calls = append(calls, state.NewToolCall(rc.Name, rc.Args))
	}
	return calls, modeSwitch, modeReason, nil
}
