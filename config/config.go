// Package config loads the CLI's YAML configuration: model provider
// selection, engine limits, summarization tuning, prompt overrides and
// logging preferences. Everything has a working default; a config file only
// needs to name what it changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Duration wraps time.Duration so YAML values can be written as strings
// ("30s", "2m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ModelConfig selects and tunes the model collaborator.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
}

// EngineConfig tunes the graph executor.
type EngineConfig struct {
	MaxSteps    int      `yaml:"max_steps"`
	NodeTimeout Duration `yaml:"node_timeout"`
}

// SummarizeConfig tunes the summarizer's entry condition and window.
type SummarizeConfig struct {
	Threshold int `yaml:"threshold"`
	Window    int `yaml:"window"`
}

// PromptConfig overrides the built-in node prompts. Empty fields keep the
// defaults.
type PromptConfig struct {
	Chat      string `yaml:"chat"`
	Sentiment string `yaml:"sentiment"`
	Calming   string `yaml:"calming"`
	Summarize string `yaml:"summarize"`
}

// LoggingConfig tunes diagnostic output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Engine    EngineConfig    `yaml:"engine"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Prompts   PromptConfig    `yaml:"prompts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.7,
		},
		Engine: EngineConfig{
			MaxSteps:    25,
			NodeTimeout: Duration(30 * time.Second),
		},
		Summarize: SummarizeConfig{
			Threshold: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values that would otherwise fail deep inside the
// engine.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Engine.MaxSteps <= 0 {
		return fmt.Errorf("engine.max_steps must be positive, got %d", c.Engine.MaxSteps)
	}
	if c.Engine.NodeTimeout < 0 {
		return fmt.Errorf("engine.node_timeout must not be negative")
	}
	if c.Summarize.Threshold <= 0 {
		return fmt.Errorf("summarize.threshold must be positive, got %d", c.Summarize.Threshold)
	}
	if c.Summarize.Window < 0 {
		return fmt.Errorf("summarize.window must not be negative")
	}
	return nil
}
