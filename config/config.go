// Package config provides the runtime's configuration types: a single
// unified Config struct assembled from per-concern section structs, each
// implementing SetDefaults/Validate, loaded from YAML and overlaid with
// environment variables.
package config

import "fmt"

// ConfigInterface is implemented by every configuration section.
type ConfigInterface interface {
	Validate() error
	SetDefaults()
}

// Config is the complete runtime configuration: the single entry point for
// all configuration sections.
type Config struct {
	Engine   EngineConfig   `yaml:"engine,omitempty"`
	Tool     ToolConfig     `yaml:"tool,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	TaskLock TaskLockConfig `yaml:"task_lock,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// SetDefaults sets default values for every unset field across all sections.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Tool.SetDefaults()
	c.Store.SetDefaults()
	c.TaskLock.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate validates every section, wrapping the first failure it finds.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	if err := c.Tool.Validate(); err != nil {
		return fmt.Errorf("tool config validation failed: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}
	if err := c.TaskLock.Validate(); err != nil {
		return fmt.Errorf("task lock config validation failed: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config validation failed: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	return nil
}

// Mode is the reasoning mode a Workspace can be in.
type Mode string

const (
	ModeFast  Mode = "fast"
	ModeDeep  Mode = "deep"
	ModeAdapt Mode = "adapt"
)

// EngineConfig governs the Reason/Act/Respond loop (spec §6 "Configuration").
type EngineConfig struct {
	MaxIterations               int     `yaml:"max_iterations,omitempty"`
	Mode                        Mode    `yaml:"mode,omitempty"`
	KnowledgeRetrievalThreshold float64 `yaml:"knowledge_retrieval_threshold,omitempty"`
	AutomaticRetrievalTopK      int     `yaml:"automatic_retrieval_topk,omitempty"`
	ModeSwitchCooldownIters     int     `yaml:"mode_switch_cooldown_iters,omitempty"`
	ProfileLearningCadence      int     `yaml:"profile_learning_cadence_messages,omitempty"`
	ContextTokenBudget          int     `yaml:"context_token_budget,omitempty"`
}

func (c *EngineConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	if c.Mode == "" {
		c.Mode = ModeFast
	}
	if c.KnowledgeRetrievalThreshold == 0 {
		c.KnowledgeRetrievalThreshold = 0.75
	}
	if c.AutomaticRetrievalTopK == 0 {
		c.AutomaticRetrievalTopK = 2
	}
	if c.ModeSwitchCooldownIters == 0 {
		c.ModeSwitchCooldownIters = 2
	}
	if c.ProfileLearningCadence == 0 {
		c.ProfileLearningCadence = 5
	}
	if c.ContextTokenBudget == 0 {
		c.ContextTokenBudget = 8000
	}
}

func (c *EngineConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	switch c.Mode {
	case ModeFast, ModeDeep, ModeAdapt:
	default:
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}
	if c.KnowledgeRetrievalThreshold < 0 || c.KnowledgeRetrievalThreshold > 1 {
		return fmt.Errorf("knowledge_retrieval_threshold must be in [0,1], got %f", c.KnowledgeRetrievalThreshold)
	}
	if c.ModeSwitchCooldownIters < 0 {
		return fmt.Errorf("mode_switch_cooldown_iters cannot be negative")
	}
	return nil
}

// ToolConfig governs the Tool Scheduler (spec §4.3).
type ToolConfig struct {
	SequentialDependencyHeuristic bool `yaml:"sequential_dependency_heuristic,omitempty"`
	MaxParallelTools              int  `yaml:"max_parallel_tools,omitempty"`
}

func (c *ToolConfig) SetDefaults() {
	c.SequentialDependencyHeuristic = true
}

func (c *ToolConfig) Validate() error {
	if c.MaxParallelTools < 0 {
		return fmt.Errorf("max_parallel_tools cannot be negative")
	}
	return nil
}

// StoreConfig selects the reference Store backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "memory", "sqlite", "postgres", "mysql"
	DSN     string `yaml:"dsn,omitempty"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported store backend: %q", c.Backend)
	}
	if c.Backend != "memory" && c.DSN == "" {
		return fmt.Errorf("dsn is required for store backend %q", c.Backend)
	}
	return nil
}

// TaskLockConfig selects the TaskLock backend (spec §5 resume-guard).
type TaskLockConfig struct {
	Backend   string   `yaml:"backend,omitempty"` // "inprocess", "etcd", "consul"
	Endpoints []string `yaml:"endpoints,omitempty"`
}

func (c *TaskLockConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "inprocess"
	}
}

func (c *TaskLockConfig) Validate() error {
	switch c.Backend {
	case "inprocess":
	case "etcd", "consul":
		if len(c.Endpoints) == 0 {
			return fmt.Errorf("endpoints are required for task lock backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unsupported task lock backend: %q", c.Backend)
	}
	return nil
}

// MetricsConfig governs the optional phase-boundary observability seam
// (spec §2.1 ambient stack).
type MetricsConfig struct {
	Backend string `yaml:"backend,omitempty"` // "none", "otel", "prometheus"
}

func (c *MetricsConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
}

func (c *MetricsConfig) Validate() error {
	switch c.Backend {
	case "none", "otel", "prometheus":
	default:
		return fmt.Errorf("unsupported metrics backend: %q", c.Backend)
	}
	return nil
}

// LoggingConfig governs the repo-wide slog.Logger construction.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"` // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "text", "json"
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Format)
	}
	return nil
}
