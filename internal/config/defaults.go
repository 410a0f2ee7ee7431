package config

import "time"

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via the config file
// and MCPCHAT_* environment variables.
// NOTE: Values in the config file override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Agent    AgentConfig    `yaml:"agent"`
	Host     HostConfig     `yaml:"host"`
	Tools    ToolsConfig    `yaml:"tools"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	UI       UIConfig       `yaml:"ui"`
}

type ProviderConfig struct {
	Name            string   `yaml:"name"`              // Default: "gemini"
	Model           string   `yaml:"model"`             // Default: "" (provider default)
	APIKeyEnv       string   `yaml:"api_key_env"`       // Default: "" (GEMINI_API_KEY or ANTHROPIC_API_KEY)
	MaxOutputTokens int      `yaml:"max_output_tokens"` // Default: 0 (provider default)
	Temperature     *float64 `yaml:"temperature"`       // Default: unset
}

type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"` // Default: 10
}

// HostConfig overrides how the tool server is launched.
type HostConfig struct {
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Env         map[string]string `yaml:"env"`
	CallTimeout time.Duration     `yaml:"call_timeout"` // Default: 0 (none)
}

type ToolsConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

type LogConfig struct {
	Level string `yaml:"level"` // Default: "info"
	File  string `yaml:"file"`  // Default: ~/.config/mcpchat/mcpchat.log
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // Default: "" (disabled)
}

type UIConfig struct {
	Plain bool `yaml:"plain"`
}

// Supported provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name: ProviderGemini,
		},
		Agent: AgentConfig{
			MaxIterations: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// EnvList returns Env as KEY=VALUE pairs.
func (h HostConfig) EnvList() []string {
	out := make([]string, 0, len(h.Env))
	for k, v := range h.Env {
		out = append(out, k+"="+v)
	}
	return out
}
