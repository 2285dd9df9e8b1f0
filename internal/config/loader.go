package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment.
// The environment variables named by the deployment contract
// (TELEGRAM_BOT_TOKEN, ORDERS_MCP_COMMAND, ORDERS_MCP_SCRIPT,
// OPENAI_API_KEY, ANTHROPIC_API_KEY) always win over the file.
func (l *Loader) Load() (*Config, error) {
	configPath := l.configPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".ordina", "ordina.json")
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	bindEnvironment(v)

	// Config file is optional; environment alone is a valid deployment.
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvironment(v, cfg)

	// Set data directory if not specified
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".ordina")
	}

	// Set logging file path if not specified
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "ordina.log")
	}

	return cfg, nil
}

// bindEnvironment binds the deployment environment variables
func bindEnvironment(v *viper.Viper) {
	_ = v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("mcp.command", "ORDERS_MCP_COMMAND")
	_ = v.BindEnv("mcp.script", "ORDERS_MCP_SCRIPT")
	_ = v.BindEnv("ai.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.anthropic_api_key", "ANTHROPIC_API_KEY")
}

// applyEnvironment copies bound environment values into the config.
// Unmarshal does not consult BindEnv bindings when no config file key
// exists, so the values are applied explicitly.
func applyEnvironment(v *viper.Viper, cfg *Config) {
	if s := v.GetString("telegram.bot_token"); s != "" {
		cfg.Telegram.BotToken = s
	}
	if s := v.GetString("mcp.command"); s != "" {
		cfg.MCP.Command = s
	}
	if s := v.GetString("mcp.script"); s != "" {
		cfg.MCP.Script = s
	}
	if s := v.GetString("ai.openai_api_key"); s != "" {
		cfg.AI.OpenAIAPIKey = s
	}
	if s := v.GetString("ai.anthropic_api_key"); s != "" {
		cfg.AI.AnthropicAPIKey = s
	}
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ordina", "ordina.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
