// Package config loads and validates boardroom configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all boardroom configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM token source configuration
	LLM LLMConfig `yaml:"llm"`

	// Session engine tunables
	Engine EngineConfig `yaml:"engine"`

	// Record store
	Store StoreConfig `yaml:"store"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Question/persona catalog directory; empty means built-in defaults
	CatalogDir string `yaml:"catalog_dir"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the token source.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EngineConfig configures the session state machine and the gate.
type EngineConfig struct {
	// MaxGateAttempts is the attempt count at which the gate force-passes
	// an answer regardless of specificity.
	MaxGateAttempts int `yaml:"max_gate_attempts"`

	// BoardTurnsPerPhase is the number of user turns that advance a
	// board-meeting session to its next phase.
	BoardTurnsPerPhase int `yaml:"board_turns_per_phase"`

	// BoardMinUserTurns is the total user-turn floor a board meeting must
	// reach, in addition to passing the terminal phase, before it completes.
	// Kept configurable pending product clarification of the constant.
	BoardMinUserTurns int `yaml:"board_min_user_turns"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Dir        string          `yaml:"dir"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "boardroom",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider: "",
			Model:    "",
			Timeout:  "120s",
		},

		Engine: EngineConfig{
			MaxGateAttempts:    3,
			BoardTurnsPerPhase: 2,
			BoardMinUserTurns:  10,
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(".boardroom", "boardroom.db"),
		},

		Server: ServerConfig{
			Addr: ":8080",
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".boardroom",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Provider keys are checked in priority order; the last match wins so
// GEMINI > OPENAI > ANTHROPIC when several are set.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}

	if path := os.Getenv("BOARDROOM_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("BOARDROOM_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("BOARDROOM_CATALOG"); dir != "" {
		c.CatalogDir = dir
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"gemini":    true,
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.LLM.Provider != "" && !ValidProviders[c.LLM.Provider] {
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider)
	}
	if c.Engine.MaxGateAttempts < 1 {
		return fmt.Errorf("max_gate_attempts must be >= 1, got %d", c.Engine.MaxGateAttempts)
	}
	if c.Engine.BoardTurnsPerPhase < 1 {
		return fmt.Errorf("board_turns_per_phase must be >= 1, got %d", c.Engine.BoardTurnsPerPhase)
	}
	if c.Engine.BoardMinUserTurns < 0 {
		return fmt.Errorf("board_min_user_turns must be >= 0, got %d", c.Engine.BoardMinUserTurns)
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store database_path is required")
	}
	return nil
}
