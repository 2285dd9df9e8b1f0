package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main ordina configuration
type Config struct {
	// Telegram
	Telegram TelegramConfig `json:"telegram" mapstructure:"telegram"`

	// MCP tool-provider subprocess
	MCP MCPConfig `json:"mcp" mapstructure:"mcp"`

	// Agent
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// AI provider credentials
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Sessions
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken    string `json:"bot_token" mapstructure:"bot_token"`
	PollTimeout int    `json:"poll_timeout" mapstructure:"poll_timeout"` // seconds
}

// MCPConfig holds the tool-provider subprocess configuration.
// The subprocess is launched as `<command> <script>` and speaks the
// Model Context Protocol over stdio.
type MCPConfig struct {
	Command string `json:"command" mapstructure:"command"`
	Script  string `json:"script" mapstructure:"script"`
}

// AgentConfig holds the agent definition parameters
type AgentConfig struct {
	Name        string  `json:"name" mapstructure:"name"`
	Provider    string  `json:"provider" mapstructure:"provider"` // openai, anthropic
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// AIConfig holds AI provider credentials
type AIConfig struct {
	OpenAIAPIKey    string `json:"openai_api_key" mapstructure:"openai_api_key"`
	AnthropicAPIKey string `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`
}

// SessionsConfig holds session persistence configuration
type SessionsConfig struct {
	DBPath string `json:"db_path" mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		MCP: MCPConfig{
			Command: "python",
			Script:  "orders_mcp_server.py",
		},
		Agent: AgentConfig{
			Name:        "OrderAssistant",
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Sessions: SessionsConfig{
			DBPath: "sessions.db",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	if c.MCP.Command == "" {
		return fmt.Errorf("mcp command cannot be empty")
	}
	if c.MCP.Script == "" {
		return fmt.Errorf("mcp script cannot be empty")
	}

	switch c.Agent.Provider {
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("openai provider selected but OPENAI_API_KEY is not set")
		}
	case "anthropic":
		if c.AI.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic provider selected but ANTHROPIC_API_KEY is not set")
		}
	default:
		return fmt.Errorf("invalid agent provider %q (must be: openai, anthropic)", c.Agent.Provider)
	}

	if c.Agent.Model == "" {
		return fmt.Errorf("agent model cannot be empty")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 1 {
		return fmt.Errorf("agent temperature must be between 0 and 1")
	}
	if c.Agent.MaxTokens < 0 {
		return fmt.Errorf("agent max tokens cannot be negative")
	}

	if c.Sessions.DBPath == "" {
		return fmt.Errorf("sessions db path cannot be empty")
	}

	return nil
}
