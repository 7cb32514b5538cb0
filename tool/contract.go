// Package tool defines the uniform Tool contract (spec §4.2) and the
// registry/scheduler built on top of it.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Result is the tagged outcome of a tool execution: either success with
// data, or failure with a message. Exactly one of the two is meaningful,
// selected by Success.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Ok constructs a successful Result carrying data.
func Ok(data interface{}) Result {
	return Result{Success: true, Data: data}
}

// Failf constructs a failed Result with a formatted message.
func Failf(format string, args ...interface{}) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Tool is the uniform interface every tool source adapts to (spec §4.2):
// name, description, schema, examples, rules, and execution. Tools must be
// idempotent on repeated identical calls where practical; the core makes
// no retry decision of its own.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Examples() []string
	Rules() []string
	Execute(ctx context.Context, args map[string]interface{}) (Result, error)

	// IsFilesystemMutator reports whether this tool creates, writes, edits,
	// or deletes filesystem state — input to the Scheduler's dependency
	// heuristic (§4.3).
	IsFilesystemMutator() bool
	// IsShellExecutor reports whether this tool runs an arbitrary shell
	// command — the other half of the Scheduler's dependency heuristic.
	IsShellExecutor() bool
}

// Typed is implemented by tools whose arguments decode into a concrete Go
// struct rather than a raw map. NewArgs returns a pointer to a fresh
// argument struct; the Registry and Scheduler do not call it, and each
// tool decodes its own arguments in Execute via DecodeArgs.
type Typed interface {
	Tool
	NewArgs() interface{}
}

// SchemaFor reflects a JSON Schema for a typed parameter struct, grounded
// on invopop/jsonschema's struct-tag reflection (spec §4.2 [DOMAIN]).
func SchemaFor(args interface{}) *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(args)
}

// DecodeArgs loosely decodes a call's raw map[string]any args into dst (a
// pointer to a Typed tool's argument struct) via mapstructure, so Execute
// implementations work against typed fields instead of re-parsing the map
// by hand on every call.
func DecodeArgs(raw map[string]interface{}, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("tool: build args decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("tool: decode args: %w", err)
	}
	return nil
}

// MarshalArgs round-trips args through JSON into dst, used by sources
// (e.g. MCP) that receive arguments as JSON text rather than a map.
func MarshalArgs(raw []byte, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("tool: unmarshal args: %w", err)
	}
	return nil
}
