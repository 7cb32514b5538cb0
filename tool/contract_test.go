package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor_ReflectsFieldDescriptions(t *testing.T) {
	schema := SchemaFor(ShellArgs{})
	require.NotNil(t, schema)
	prop, ok := schema.Properties.Get("command")
	require.True(t, ok)
	assert.Equal(t, "the shell command line to run", prop.Description)
}

func TestDecodeArgs_LooseToStrict(t *testing.T) {
	var a ShellArgs
	err := DecodeArgs(map[string]interface{}{"command": "git status"}, &a)
	require.NoError(t, err)
	assert.Equal(t, "git status", a.Command)
}

func TestShellTool_RejectsDisallowedCommand(t *testing.T) {
	tool := NewShellTool()
	res, err := tool.Execute(context.Background(), map[string]interface{}{"command": "rm -rf /"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestFileWriteTool_RejectsDisallowedExtension(t *testing.T) {
	tool := NewFileWriteTool()
	res, err := tool.Execute(context.Background(), map[string]interface{}{"path": "x.exe", "content": "a"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}
