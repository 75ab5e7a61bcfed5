package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/model"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Keyring.Driver)
	assert.Equal(t, "fanout.db", cfg.Keyring.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Dispatch.TimeoutSecs)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Providers.Anthropic.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.Providers.Gemini.Model)
	assert.Equal(t, "deepseek-chat", cfg.Providers.DeepSeek.Model)
	assert.NotEmpty(t, cfg.Pricing, "default pricing rates populated")
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtemp(t)

	yaml := `
keyring:
  driver: postgres
  database_url: postgres://localhost/fanout
log:
  level: debug
  format: console
server:
  port: 9090
dispatch:
  timeout_secs: 30
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Keyring.Driver)
	assert.Equal(t, "postgres://localhost/fanout", cfg.Keyring.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Dispatch.TimeoutSecs)
	// Defaults still apply for unset values
	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chtemp(t)

	yaml := `
keyring:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FANOUT_KEYRING_DRIVER", "sqlite")
	t.Setenv("FANOUT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Keyring.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("FANOUT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestProvidersFor(t *testing.T) {
	p := ProvidersConfig{
		OpenAI:   ProviderConfig{Model: "gpt-4o"},
		Gemini:   ProviderConfig{Model: "gemini-2.5-flash"},
		DeepSeek: ProviderConfig{Model: "deepseek-chat"},
	}

	assert.Equal(t, "gpt-4o", p.For(model.ProviderOpenAI).Model)
	assert.Equal(t, "gemini-2.5-flash", p.For(model.ProviderGemini).Model)
	assert.Empty(t, p.For(model.Provider("mystery")).Model)
}

func TestLoadCatalogAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	yaml := `
providers:
  openai:
    model: gpt-4.1
    rate_per_minute: 30
  gemini:
    base_url: https://example.test/v1beta
    pricing:
      input: 0.5
      output: 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	chtemp(t)
	cfg, err := Load()
	require.NoError(t, err)
	cat.Apply(cfg)

	assert.Equal(t, "gpt-4.1", cfg.Providers.OpenAI.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, "https://example.test/v1beta", cfg.Providers.Gemini.BaseURL)
	assert.InDelta(t, 30.0, cfg.Dispatch.RatePerMinute[model.ProviderOpenAI], 0.001)
	assert.InDelta(t, 0.5, cfg.Pricing[model.ProviderGemini].Input, 0.001)
	assert.InDelta(t, 2.0, cfg.Pricing[model.ProviderGemini].Output, 0.001)
}

func TestLoadCatalogUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  mystery:\n    model: x\n"), 0644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
