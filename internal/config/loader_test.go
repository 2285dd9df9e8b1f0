package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "ordina.json")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "python", cfg.MCP.Command)
	assert.Equal(t, "orders_mcp_server.py", cfg.MCP.Script)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "ordina.json")

	content := `{
		"telegram": {"bot_token": "file-token"},
		"mcp": {"command": "python3", "script": "tools.py"},
		"agent": {"provider": "openai", "model": "gpt-4o"},
		"data_dir": "` + tmpDir + `"
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, "python3", cfg.MCP.Command)
	assert.Equal(t, "tools.py", cfg.MCP.Script)
	assert.Equal(t, "gpt-4o", cfg.Agent.Model)
	assert.Equal(t, tmpDir, cfg.DataDir)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "ordina.json")

	content := `{"telegram": {"bot_token": "file-token"}}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("ORDERS_MCP_COMMAND", "uv")
	t.Setenv("ORDERS_MCP_SCRIPT", "run_server.py")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "uv", cfg.MCP.Command)
	assert.Equal(t, "run_server.py", cfg.MCP.Script)
}

func TestEnvironmentOnly(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "missing.json")

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-only-token")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "env-only-token", cfg.Telegram.BotToken)
	assert.Equal(t, "sk-env", cfg.AI.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestGetConfigPath(t *testing.T) {
	loader := NewLoader("/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", loader.GetConfigPath())

	loader = NewLoader("")
	assert.Contains(t, loader.GetConfigPath(), ".ordina")
}
