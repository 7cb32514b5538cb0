package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// ShellArgs is the typed parameter struct for ShellTool, reflected into a
// JSON Schema via invopop/jsonschema (spec §4.2 [DOMAIN]).
type ShellArgs struct {
	Command string `json:"command" jsonschema_description:"the shell command line to run"`
}

// ShellTool runs an allow-listed shell command, grounded on the teacher's
// tools/command.go CommandTool, narrowed to the fields the new contract
// needs (no sandboxing config surface; the core imposes no sandboxing per
// spec §4.5).
type ShellTool struct {
	AllowedCommands  []string
	WorkingDirectory string
	Timeout          time.Duration
}

// NewShellTool constructs a ShellTool with secure defaults mirrored from
// the teacher's NewCommandTool.
func NewShellTool() *ShellTool {
	return &ShellTool{
		AllowedCommands:  []string{"cat", "head", "tail", "ls", "find", "grep", "wc", "pwd", "git", "go", "echo", "date"},
		WorkingDirectory: "./",
		Timeout:          30 * time.Second,
	}
}

func (t *ShellTool) Name() string        { return "shell" }
func (t *ShellTool) Description() string { return "Run an allow-listed shell command and return its output." }
func (t *ShellTool) Examples() []string {
	return []string{`{"name": "shell", "args": {"command": "git status"}}`}
}
func (t *ShellTool) Rules() []string {
	return []string{"Only the configured allow-listed commands may run.", "Output is returned in full; prefer narrow, specific commands."}
}
func (t *ShellTool) Schema() *jsonschema.Schema { return SchemaFor(ShellArgs{}) }
func (t *ShellTool) NewArgs() interface{}       { return &ShellArgs{} }

func (t *ShellTool) IsFilesystemMutator() bool { return false }
func (t *ShellTool) IsShellExecutor() bool      { return true }

func (t *ShellTool) allowed(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	// The line runs under sh -c, so chaining, pipes, substitution and
	// redirection would let a command other than fields[0] run.
	if strings.ContainsAny(cmd, ";&|<>$`\n") {
		return false
	}
	bin := fields[0]
	for _, a := range t.AllowedCommands {
		if a == bin {
			return true
		}
	}
	return false
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	var a ShellArgs
	if err := DecodeArgs(args, &a); err != nil {
		return Result{}, err
	}
	if a.Command == "" {
		return Failf("command is required"), nil
	}
	if !t.allowed(a.Command) {
		return Failf("command %q is not in the allow-list", a.Command), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", a.Command)
	cmd.Dir = t.WorkingDirectory

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Failf("command failed: %v: %s", err, stderr.String()), nil
	}
	return Ok(fmt.Sprintf("%s", stdout.String())), nil
}
