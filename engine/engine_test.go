package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iteebz/cogency-sub003/config"
	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/llm/llmtest"
	"github.com/iteebz/cogency-sub003/state"
	"github.com/iteebz/cogency-sub003/store"
	"github.com/iteebz/cogency-sub003/tool"
)

type fakeTool struct {
	name   string
	result tool.Result
	err    error
}

func (f *fakeTool) Name() string              { return f.name }
func (f *fakeTool) Description() string       { return "fake tool for engine tests" }
func (f *fakeTool) Schema() *jsonschema.Schema { return nil }
func (f *fakeTool) Examples() []string        { return nil }
func (f *fakeTool) Rules() []string           { return nil }
func (f *fakeTool) IsFilesystemMutator() bool { return f.name == "file_write" }
func (f *fakeTool) IsShellExecutor() bool     { return f.name == "shell" }
func (f *fakeTool) Execute(ctx context.Context, args map[string]interface{}) (tool.Result, error) {
	return f.result, f.err
}

func newTestEngine(t *testing.T, fake *llmtest.Fake, cfg config.EngineConfig, tools ...tool.Tool) *Engine {
	t.Helper()
	cfg.SetDefaults()

	reg := tool.NewRegistry(nil)
	reg.AddSource(&tool.LocalSource{SourceName: "test", Tools: tools})
	require.NoError(t, reg.DiscoverAll(context.Background()))

	sched := tool.NewScheduler(reg, config.ToolConfig{})
	repo := store.NewRepo(store.NewMemoryStore(), nil)

	e := New(fake, reg, sched, repo, cfg)
	tokens, err := NewTokenCounter("gpt-4")
	require.NoError(t, err)
	e.Tokens = tokens
	return e
}

func TestEngine_DirectAnswer(t *testing.T) {
	fake := llmtest.New(
		"§respond: let me think §end",
		"4",
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5})

	res, err := e.StartTask(context.Background(), "What is 2+2?", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopNone, res.StopReason)
	assert.Equal(t, "4", res.Response)
	assert.Equal(t, 2, fake.CallCount())
}

func TestEngine_ShellToolAcrossTwoIterations(t *testing.T) {
	shell := &fakeTool{name: "shell", result: tool.Ok("file1 file2")}
	fake := llmtest.New(
		`§call:[{"name":"shell","args":{"cmd":"ls"}}]§execute`,
		`§respond: done §end`,
		"I listed the directory and found file1 and file2.",
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5}, shell)

	res, err := e.StartTask(context.Background(), "list files in this directory", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopNone, res.StopReason)
	assert.Contains(t, res.Response, "file1")
	assert.Equal(t, 3, fake.CallCount())
}

func TestEngine_ParallelSafeBatch(t *testing.T) {
	search := &fakeTool{name: "search", result: tool.Ok("result")}
	fake := llmtest.New(
		`§call:[{"name":"search","args":{"q":"a"}},{"name":"search","args":{"q":"b"}}]§execute`,
		`§respond: done §end`,
		"Found results for both searches.",
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5}, search)

	res, err := e.StartTask(context.Background(), "search for a and b", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopNone, res.StopReason)
	assert.Contains(t, res.Response, "Found results")
}

func TestEngine_DependencyForcedSequentialBatch(t *testing.T) {
	writer := &fakeTool{name: "file_write", result: tool.Ok("wrote")}
	shell := &fakeTool{name: "shell", result: tool.Ok("contents")}
	fake := llmtest.New(
		`§call:[{"name":"file_write","args":{"path":"a.txt"}},{"name":"shell","args":{"cmd":"cat a.txt"}}]§execute`,
		`§respond: done §end`,
		"Wrote the file and confirmed its contents.",
	)
	cfg := config.EngineConfig{MaxIterations: 5}
	e := newTestEngine(t, fake, cfg, writer, shell)
	e.Scheduler = tool.NewScheduler(e.Tools, config.ToolConfig{SequentialDependencyHeuristic: true})

	res, err := e.StartTask(context.Background(), "write a file then cat it", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopNone, res.StopReason)
	assert.Contains(t, res.Response, "Wrote the file")
}

func TestEngine_ForcedCompletionAtMaxIterations(t *testing.T) {
	shell := &fakeTool{name: "shell", result: tool.Ok("ok")}
	fake := llmtest.New(
		`§call:[{"name":"shell","args":{"cmd":"one"}}]§execute`,
		`§call:[{"name":"shell","args":{"cmd":"two"}}]§execute`,
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 2}, shell)

	res, err := e.StartTask(context.Background(), "keep running shell commands forever", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopMaxIterations, res.StopReason)
	assert.Contains(t, res.Response, "Task completed after 2 iterations")
	assert.Equal(t, 2, fake.CallCount())
}

func TestEngine_MalformedCallExceedsParseRetry(t *testing.T) {
	fake := llmtest.New(
		`§call:{not valid json}§execute`,
		`§call:{still not valid}§execute`,
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5})

	res, err := e.StartTask(context.Background(), "do something", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopParseErrorExceeded, res.StopReason)
	assert.Equal(t, 2, fake.CallCount())
}

func TestEngine_LLMErrorStopsAfterOneRetry(t *testing.T) {
	fake := &llmtest.Fake{Err: assertErr}
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5})

	res, err := e.StartTask(context.Background(), "do something", "user-1")

	require.NoError(t, err)
	assert.Equal(t, state.StopLLMError, res.StopReason)
	assert.Equal(t, maxLLMRetries+1, len(fake.Seen))
}

func TestEngine_EmptyQueryRejectedWithNoTaskState(t *testing.T) {
	fake := llmtest.New()
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5})

	_, err := e.StartTask(context.Background(), "   ", "user-1")

	require.Error(t, err)
	assert.Equal(t, 0, fake.CallCount())
}

func TestEngine_OutputSchemaValidatesResponse(t *testing.T) {
	type answer struct {
		Answer string `json:"answer"`
	}
	fake := llmtest.New(
		"§respond: thinking §end",
		`{"answer":"4"}`,
	)
	e := newTestEngine(t, fake, config.EngineConfig{MaxIterations: 5})
	e.OutputSchema = answer{}

	res, err := e.StartTask(context.Background(), "What is 2+2?", "user-1")

	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"4"}`, res.Response)
}

var assertErr = errors.New("llm unavailable")

var _ llm.LLM = (*llmtest.Fake)(nil)
