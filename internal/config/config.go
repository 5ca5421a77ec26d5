package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// Config is the full on-disk configuration.
// The file is JSON5 so hand-edited configs may carry comments and
// trailing commas; Save writes plain JSON (a valid JSON5 subset).
type Config struct {
	Agent      AgentConfig                `json:"agent"`
	Ask        AskConfig                  `json:"ask"`
	Providers  map[string]ProviderConfig  `json:"providers"`
	MCPServers map[string]MCPServerConfig `json:"mcpServers,omitempty"`
	Tracing    TracingConfig              `json:"tracing"`
}

// AgentConfig holds defaults for the agent run loop.
type AgentConfig struct {
	Model    string   `json:"model"`
	MaxTurns int      `json:"maxTurns"`
	Tools    []string `json:"tools,omitempty"` // empty = all registered tools
}

// AskConfig holds defaults for human queries.
type AskConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// ProviderConfig describes one OpenAI-compatible endpoint.
type ProviderConfig struct {
	APIKey            string   `json:"apiKey"`
	APIBase           string   `json:"apiBase,omitempty"`
	Models            []string `json:"models"`
	RequestsPerMinute int      `json:"requestsPerMinute,omitempty"`
}

// MCPServerConfig describes one MCP tool server.
type MCPServerConfig struct {
	Command        string            `json:"command,omitempty"` // stdio transport
	Args           []string          `json:"args,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	URL            string            `json:"url,omitempty"` // streamable HTTP transport
	Prefix         string            `json:"prefix,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
}

// TracingConfig configures OTLP span export. Tracing itself is always on
// (in-memory); export only happens when an endpoint is set.
type TracingConfig struct {
	OTLPEndpoint string            `json:"otlpEndpoint,omitempty"`
	Protocol     string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure     bool              `json:"insecure,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

const (
	DefaultMaxTurns       = 10
	DefaultAskTimeoutSecs = 60
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json5"
	}
	return filepath.Join(home, ".joyride-ai", "config.json5")
}

// Default returns a fresh config with defaults applied and no providers.
func Default() *Config {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func (c *Config) applyDefaults() {
	if c.Agent.MaxTurns <= 0 {
		c.Agent.MaxTurns = DefaultMaxTurns
	}
	if c.Ask.TimeoutSeconds <= 0 {
		c.Ask.TimeoutSeconds = DefaultAskTimeoutSecs
	}
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = "grpc"
	}
}

// Validate checks structural consistency: provider keys must be valid IDs
// and the default model must be served by some provider.
func (c *Config) Validate() error {
	for name := range c.Providers {
		if NormalizeProviderID(name) != name {
			return fmt.Errorf("invalid provider id %q (use lowercase [a-z0-9_-])", name)
		}
	}
	if c.Agent.Model != "" && len(c.Providers) > 0 && c.providerForModel(c.Agent.Model) == "" {
		return fmt.Errorf("default model %q is not served by any configured provider", c.Agent.Model)
	}
	return nil
}

func (c *Config) providerForModel(model string) string {
	for name, p := range c.Providers {
		for _, m := range p.Models {
			if m == model || name == model {
				return name
			}
		}
	}
	return ""
}
