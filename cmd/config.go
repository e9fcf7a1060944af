package cmd

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssep-lab/ssep-search/search"
	"github.com/ssep-lab/ssep-search/search/assistant"
	"github.com/ssep-lab/ssep-search/search/executor"
	"github.com/ssep-lab/ssep-search/search/geometry"
)

// Config is the optional --config file. Every section may be omitted.
// Unknown keys are rejected.
type Config struct {
	RunsDir   string          `yaml:"runs_dir"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Assistant AssistantConfig `yaml:"assistant"`
	Geometry  GeometryConfig  `yaml:"geometry"`
}

// ExecutorConfig selects and configures the simulator.
type ExecutorConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
	Mock    bool          `yaml:"mock"`
}

// AssistantConfig configures the chat endpoint.
type AssistantConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// GeometryConfig configures the point-cloud generator.
type GeometryConfig struct {
	Points int `yaml:"points"`
}

// DefaultConfig returns the built-in defaults. The mock simulator is the
// default everywhere except Windows, where the real binary is expected.
func DefaultConfig() Config {
	return Config{
		RunsDir: "runs",
		Executor: ExecutorConfig{
			Path:    "anemone.exe",
			Timeout: executor.DefaultTimeout,
			Mock:    runtime.GOOS != "windows",
		},
		Assistant: AssistantConfig{
			Enabled:     true,
			BaseURL:     "http://localhost:11434/v1",
			APIKey:      "ollama",
			Model:       "llama3.1:8b",
			Temperature: assistant.DefaultTemperature,
			MaxTokens:   assistant.DefaultMaxTokens,
		},
		Geometry: GeometryConfig{Points: geometry.DefaultPoints},
	}
}

// LoadConfig returns the defaults overlaid with the file at path (if any) and
// then with the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides assistant and executor settings from the environment.
// USE_GPT and USE_DUMMY are "1" for on and anything else for off.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.Assistant.BaseURL = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Assistant.APIKey = v
	}
	if v, ok := lookup("OPENAI_MODEL"); ok && v != "" {
		c.Assistant.Model = v
	}
	if v, ok := lookup("USE_GPT"); ok {
		c.Assistant.Enabled = v == "1"
	}
	if v, ok := lookup("USE_DUMMY"); ok {
		c.Executor.Mock = v == "1"
	}
}

// Validate rejects settings that cannot produce a working run.
func (c *Config) Validate() error {
	if c.RunsDir == "" {
		return fmt.Errorf("runs_dir must not be empty")
	}
	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("executor.timeout must be positive, got %v", c.Executor.Timeout)
	}
	if !c.Executor.Mock && c.Executor.Path == "" {
		return fmt.Errorf("executor.path is required unless executor.mock is set")
	}
	if c.Assistant.Enabled && c.Assistant.BaseURL == "" {
		return fmt.Errorf("assistant.base_url is required when the assistant is enabled")
	}
	if c.Geometry.Points < 0 {
		return fmt.Errorf("geometry.points must be non-negative, got %d", c.Geometry.Points)
	}
	return nil
}

// newExecutor builds the simulator the config selects.
func (c *Config) newExecutor() search.Executor {
	if c.Executor.Mock {
		return executor.Mock{}
	}
	return executor.NewProcessExecutor(c.Executor.Path, c.Executor.Timeout)
}

// assistantConfig converts the assistant section for search.NewProposalStrategy.
func (c *Config) assistantConfig() search.AssistantConfig {
	return search.AssistantConfig{
		BaseURL:     c.Assistant.BaseURL,
		APIKey:      c.Assistant.APIKey,
		Model:       c.Assistant.Model,
		Temperature: c.Assistant.Temperature,
		MaxTokens:   c.Assistant.MaxTokens,
	}
}

// newChatClient returns nil when the assistant is disabled.
func (c *Config) newChatClient() assistant.Completer {
	if !c.Assistant.Enabled {
		return nil
	}
	return assistant.NewChatClient(c.Assistant.BaseURL, c.Assistant.APIKey, c.Assistant.Model)
}
