package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
)

// FileWriteArgs is the typed parameter struct for FileWriteTool.
type FileWriteArgs struct {
	Path    string `json:"path" jsonschema_description:"the file path to create or overwrite"`
	Content string `json:"content" jsonschema_description:"the file content"`
}

// FileWriteTool creates or overwrites a file under an allow-listed
// extension set, grounded on the teacher's tools/file_writer.go
// FileWriterTool.
type FileWriteTool struct {
	AllowedExtensions []string
	WorkingDirectory  string
	MaxFileSize       int
}

// NewFileWriteTool constructs a FileWriteTool with secure defaults
// mirrored from the teacher's NewFileWriterTool.
func NewFileWriteTool() *FileWriteTool {
	return &FileWriteTool{
		AllowedExtensions: []string{".go", ".yaml", ".md", ".json", ".txt", ".sh"},
		WorkingDirectory:  "./",
		MaxFileSize:       1048576,
	}
}

func (t *FileWriteTool) Name() string        { return "file_write" }
func (t *FileWriteTool) Description() string { return "Create or overwrite a file with the given content." }
func (t *FileWriteTool) Examples() []string {
	return []string{`{"name": "file_write", "args": {"path": "notes.md", "content": "# Notes"}}`}
}
func (t *FileWriteTool) Rules() []string {
	return []string{"Only allow-listed extensions may be written.", "Content larger than the configured limit is rejected."}
}
func (t *FileWriteTool) Schema() *jsonschema.Schema { return SchemaFor(FileWriteArgs{}) }
func (t *FileWriteTool) NewArgs() interface{}       { return &FileWriteArgs{} }

func (t *FileWriteTool) IsFilesystemMutator() bool { return true }
func (t *FileWriteTool) IsShellExecutor() bool      { return false }

func (t *FileWriteTool) allowedExt(path string) bool {
	ext := filepath.Ext(path)
	for _, a := range t.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func (t *FileWriteTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	var a FileWriteArgs
	if err := DecodeArgs(args, &a); err != nil {
		return Result{}, err
	}
	if a.Path == "" {
		return Failf("path is required"), nil
	}
	if !t.allowedExt(a.Path) {
		return Failf("extension of %q is not allow-listed", a.Path), nil
	}
	if t.MaxFileSize > 0 && len(a.Content) > t.MaxFileSize {
		return Failf("content exceeds max file size of %d bytes", t.MaxFileSize), nil
	}

	full := filepath.Join(t.WorkingDirectory, a.Path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Result{}, fmt.Errorf("tool: create parent dirs for %s: %w", full, err)
	}
	if err := os.WriteFile(full, []byte(a.Content), 0o644); err != nil {
		return Result{}, fmt.Errorf("tool: write %s: %w", full, err)
	}
	return Ok(fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path)), nil
}
