package tool

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"
	"github.com/invopop/jsonschema"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iteebz/cogency-sub003/registry"
)

// Source is a provider of tools (spec §4.2 [DOMAIN]): the registry
// supports multiple Source backends behind the same map-by-name contract.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]Tool, error)
}

// Registry is the name-to-Tool map consumed by Reason's prompt builder and
// the Scheduler. Name conflicts across sources resolve first-registered-wins
// with a logged warning, grounded on the teacher's tools/registry.go
// DiscoverAllTools.
type Registry struct {
	base   *registry.BaseRegistry[Tool]
	logger *slog.Logger

	mu      sync.Mutex
	sources []Source
}

// NewRegistry creates an empty tool Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{base: registry.NewBaseRegistry[Tool](), logger: logger}
}

// AddSource registers a Source for later discovery; it does not itself
// discover tools until DiscoverAll is called.
func (r *Registry) AddSource(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// DiscoverAll queries every added Source in registration order and
// registers its tools. A later source offering a name already claimed by
// an earlier one is skipped with a logged warning (first-registered-wins).
func (r *Registry) DiscoverAll(ctx context.Context) error {
	r.mu.Lock()
	sources := append([]Source(nil), r.sources...)
	r.mu.Unlock()

	for _, s := range sources {
		tools, err := s.Discover(ctx)
		if err != nil {
			r.logger.Warn("tool source discovery failed", "source", s.Name(), "error", err)
			continue
		}
		for _, t := range tools {
			if _, exists := r.base.Get(t.Name()); exists {
				r.logger.Warn("tool name conflict, keeping first-registered", "tool", t.Name(), "source", s.Name())
				continue
			}
			if err := r.base.Register(t.Name(), t); err != nil {
				r.logger.Warn("tool registration failed", "tool", t.Name(), "source", s.Name(), "error", err)
			}
		}
	}
	return nil
}

// Get looks up a tool by exact name match.
func (r *Registry) Get(name string) (Tool, bool) {
	return r.base.Get(name)
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	return r.base.List()
}

// LocalSource registers Go-native in-process tools directly, without a
// discovery round trip. Grounded on the teacher's tools/registry.go local
// repository path.
type LocalSource struct {
	SourceName string
	Tools      []Tool
}

func (s *LocalSource) Name() string { return s.SourceName }

func (s *LocalSource) Discover(ctx context.Context) ([]Tool, error) {
	return s.Tools, nil
}

// PluginSource adapts tools served by an out-of-process plugin binary
// speaking the runtime's gRPC handshake, grounded on
// plugins/grpc/loader.go's GRPCLoader pattern, generalized to dispense
// multiple named tools from a single plugin client instead of one typed
// component.
type PluginSource struct {
	SourceName string
	Cmd        string
	Args       []string
	Logger     hclog.Logger

	mu     sync.Mutex
	client *goplugin.Client
}

var pluginHandshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "COGENCY_TOOL_PLUGIN",
	MagicCookieValue: "cogency",
}

func (s *PluginSource) Name() string { return s.SourceName }

// Discover launches the plugin subprocess (if not already running) and
// dispenses its exposed tools over gRPC.
func (s *PluginSource) Discover(ctx context.Context) ([]Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if s.client == nil {
		s.client = goplugin.NewClient(&goplugin.ClientConfig{
			HandshakeConfig: pluginHandshake,
			Plugins:         map[string]goplugin.Plugin{"tool": &grpcToolPlugin{}},
			Cmd:             exec.Command(s.Cmd, s.Args...),
			Logger:          logger,
			AllowedProtocols: []goplugin.Protocol{
				goplugin.ProtocolGRPC,
			},
		})
	}

	rpcClient, err := s.client.Client()
	if err != nil {
		return nil, fmt.Errorf("tool: connect plugin %s: %w", s.SourceName, err)
	}
	raw, err := rpcClient.Dispense("tool")
	if err != nil {
		return nil, fmt.Errorf("tool: dispense plugin %s: %w", s.SourceName, err)
	}
	provider, ok := raw.(pluginToolProvider)
	if !ok {
		return nil, fmt.Errorf("tool: plugin %s does not implement pluginToolProvider", s.SourceName)
	}
	return provider.Tools(ctx)
}

// Close terminates the plugin subprocess, if running.
func (s *PluginSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Kill()
		s.client = nil
	}
}

// pluginToolProvider is what a dispensed plugin client must implement.
// Concrete plugin wire adapters are an external collaborator; the runtime
// only defines the boundary it dispenses against.
type pluginToolProvider interface {
	Tools(ctx context.Context) ([]Tool, error)
}

// grpcToolPlugin is the go-plugin Plugin descriptor for the "tool" type;
// wiring GRPCClient/GRPCServer to an actual protobuf service is left to the
// concrete plugin binary, mirrored after plugins/grpc/loader.go's
// getPluginMap dispatch by manifest type.
type grpcToolPlugin struct {
	goplugin.NetRPCUnsupportedPlugin
}

// MCPSource adapts tools from a stdio-transport Model Context Protocol
// server, grounded on pkg/tool/mcptoolset/mcptoolset.go's lazy-connect
// Toolset, narrowed to the stdio transport (the core's domain stack does
// not carry an HTTP client dependency for sse/streamable-http here).
type MCPSource struct {
	SourceName string
	Command    string
	Args       []string
	Env        map[string]string

	mu      sync.Mutex
	client  *mcpclient.Client
	connect sync.Once
}

func (s *MCPSource) Name() string { return s.SourceName }

func (s *MCPSource) Discover(ctx context.Context) ([]Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		env := make([]string, 0, len(s.Env))
		for k, v := range s.Env {
			env = append(env, k+"="+v)
		}
		c, err := mcpclient.NewStdioMCPClient(s.Command, env, s.Args...)
		if err != nil {
			return nil, fmt.Errorf("tool: start mcp server %s: %w", s.SourceName, err)
		}
		s.client = c
		if _, err := s.client.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
			return nil, fmt.Errorf("tool: initialize mcp server %s: %w", s.SourceName, err)
		}
	}

	listed, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("tool: list mcp tools from %s: %w", s.SourceName, err)
	}

	out := make([]Tool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		out = append(out, &mcpTool{source: s, name: t.Name, description: t.Description})
	}
	return out, nil
}

// mcpTool wraps a single tool exposed by an MCPSource's server.
type mcpTool struct {
	source      *MCPSource
	name        string
	description string
}

func (t *mcpTool) Name() string        { return t.name }
func (t *mcpTool) Description() string  { return t.description }
func (t *mcpTool) Examples() []string   { return nil }
func (t *mcpTool) Rules() []string      { return nil }
func (t *mcpTool) IsFilesystemMutator() bool { return false }
func (t *mcpTool) IsShellExecutor() bool     { return false }

func (t *mcpTool) Schema() *jsonschema.Schema {
	return nil
}

func (t *mcpTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	t.source.mu.Lock()
	client := t.source.client
	t.source.mu.Unlock()
	if client == nil {
		return Result{}, fmt.Errorf("tool: mcp source %s not connected", t.source.Name())
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	res, err := client.CallTool(ctx, req)
	if err != nil {
		return Failf("mcp call %s: %v", t.name, err), nil
	}
	if res.IsError {
		return Failf("mcp tool %s reported an error", t.name), nil
	}

	var text string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return Ok(text), nil
}
