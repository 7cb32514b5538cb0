// Package protocol reassembles a chunked token stream from an LLM into a
// sequence of typed structural events, using the sigil-delimited section
// protocol (§think:, §respond:, §call:, §execute, §end).
//
// The incremental scanner here is the direct descendant of the
// brace-counting, escaped-quote-aware marker scanner in the teacher's
// extension_service.go, generalized from a single whole-buffer pass into a
// per-token state machine that survives delimiters split across chunks.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

const sigil = '§'

// maxLookahead bounds how many characters past the sigil the parser will
// buffer while trying to resolve a delimiter before giving up and treating
// it as literal content.
const maxLookahead = 12

type delimiter struct {
	literal    string
	kind       Kind
	terminator bool
}

var delimiters = []delimiter{
	{literal: "think:", kind: Think},
	{literal: "respond:", kind: Respond},
	{literal: "call:", kind: Call},
	{literal: "execute", kind: Execute, terminator: true},
	{literal: "end", kind: End, terminator: true},
}

// Parser turns tokens into Events. It is not safe for concurrent use by
// multiple goroutines on the same instance.
type Parser struct {
	open     Kind // section currently accepting content
	tail     string
	inTail   bool // scanning an ambiguous §... sequence
	trimNext bool // strip the single separator char right after a delimiter
	callBuf  strings.Builder
	done     bool
}

// NewParser creates a parser starting in the implicit respond section.
func NewParser() *Parser {
	return &Parser{open: Respond}
}

// Parse consumes tokens from seq and returns a lazy sequence of Events. A
// nil seq is rejected (the Go analogue of the spec's "non-string token
// input is a fatal error": there is no runtime non-string case once tokens
// are typed as strings, so the only remaining invalid input is a missing
// source).
func Parse(seq iter.Seq[string]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if seq == nil {
			yield(Event{Kind: Error, Content: "protocol: nil token sequence"})
			return
		}
		p := NewParser()
		ok := true
		for tok := range seq {
			if !p.feed(tok, func(e Event) bool {
				ok = yield(e)
				return ok
			}) {
				return
			}
			if !ok || p.done {
				return
			}
		}
		p.flush(yield)
	}
}

// ParseStream adapts a channel-based token source (the shape most LLM
// client libraries in the pack expose) to Parse, respecting ctx
// cancellation on both the read and the write side.
func ParseStream(ctx context.Context, tokens <-chan string) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		seq := func(yield func(string) bool) {
			for {
				select {
				case <-ctx.Done():
					return
				case tok, open := <-tokens:
					if !open {
						return
					}
					if !yield(tok) {
						return
					}
				}
			}
		}
		for ev := range Parse(seq) {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out
}

// feed processes one token against the parser's carried-over state, calling
// yield for every Event produced. It returns false if yield asked to stop.
func (p *Parser) feed(tok string, yield func(Event) bool) bool {
	runes := []rune(tok)
	i := 0
	for i < len(runes) {
		if p.inTail {
			if !p.advanceTail(runes[i], yield) {
				return false
			}
			i++
			if p.done {
				return false
			}
			continue
		}

		r := runes[i]
		if r == sigil {
			p.inTail = true
			p.tail = ""
			i++
			continue
		}

		// batch the contiguous non-sigil run into a single emission
		start := i
		for i < len(runes) && runes[i] != sigil {
			i++
		}
		if !p.emitText(string(runes[start:i]), yield) {
			return false
		}
	}
	return true
}

// advanceTail extends the ambiguous §-prefixed buffer by one rune and
// resolves it into a delimiter, a false alarm, or further ambiguity.
func (p *Parser) advanceTail(r rune, yield func(Event) bool) bool {
	candidate := p.tail + string(r)

	var exact *delimiter
	possible := false
	for idx := range delimiters {
		d := &delimiters[idx]
		if d.literal == candidate {
			exact = d
		}
		if strings.HasPrefix(d.literal, candidate) {
			possible = true
		}
	}

	if exact != nil {
		longerStillPossible := false
		for idx := range delimiters {
			d := &delimiters[idx]
			if d.literal != exact.literal && strings.HasPrefix(d.literal, candidate) && len(d.literal) > len(candidate) {
				longerStillPossible = true
			}
		}
		if !longerStillPossible {
			p.inTail = false
			p.tail = ""
			return p.resolve(*exact, yield)
		}
	}

	if !possible || len(candidate) >= maxLookahead {
		// false alarm: flush the whole ambiguous buffer, sigil included, as
		// literal content of whatever section is currently open.
		p.inTail = false
		p.tail = ""
		return p.emitText(string(sigil)+candidate, yield)
	}

	p.tail = candidate
	return true
}

func (p *Parser) resolve(d delimiter, yield func(Event) bool) bool {
	if p.open == Call {
		if !p.closeCall(yield) {
			return false
		}
	}

	if d.terminator {
		p.done = true
		return yield(Event{Kind: d.kind})
	}

	p.open = d.kind
	p.trimNext = true
	return true
}

func (p *Parser) emitText(text string, yield func(Event) bool) bool {
	if p.trimNext {
		p.trimNext = false
		if len(text) > 0 && (text[0] == ' ' || text[0] == '\n') {
			text = text[1:]
		}
	}
	if text == "" {
		return true
	}
	if p.open == Call {
		p.callBuf.WriteString(text)
		return true
	}
	return yield(Event{Kind: p.open, Content: text})
}

// closeCall validates the accumulated §call: section as a JSON array and
// emits either a single Call event carrying the raw text or an Error event
// describing why it failed to parse.
func (p *Parser) closeCall(yield func(Event) bool) bool {
	raw := strings.TrimSpace(p.callBuf.String())
	p.callBuf.Reset()

	if raw == "" {
		return yield(Event{Kind: Error, Content: "empty call section"})
	}

	var calls []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &calls); err != nil {
		return yield(Event{Kind: Error, Content: fmt.Sprintf("invalid JSON in call section: %v", err)})
	}

	return yield(Event{Kind: Call, Content: raw})
}

// flush is invoked once the token source is exhausted without a terminator:
// any ambiguous tail is emitted as literal content and any open section
// (including an unterminated call) is closed out gracefully.
func (p *Parser) flush(yield func(Event) bool) {
	if p.done {
		return
	}
	if p.inTail {
		p.inTail = false
		tail := p.tail
		p.tail = ""
		if !p.emitText(string(sigil)+tail, yield) {
			return
		}
	}
	if p.open == Call && p.callBuf.Len() > 0 {
		p.closeCall(yield)
	}
}
