package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderGroq, cfg.LLMProvider)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 5, cfg.NewsLimit)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "equityscope.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9090"
request_timeout = "45s"

[adapters]
call_timeout = "5s"
max_retries = 0
retry_backoff = "150ms"

[market_data]
finnhub_api_key = "file-key"
news_limit = 3

[llm]
provider = "Claude"
temperature = 0.2

[pipeline]
reconcile_precedence = "hold,sell,buy"
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("CALL_TIMEOUT", "9")

	cfg, err := Load(path, filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "env overrides file")
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 9*time.Second, cfg.CallTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 150*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "file-key", cfg.FinnhubAPIKey)
	assert.Equal(t, 3, cfg.NewsLimit)
	assert.Equal(t, ProviderClaude, cfg.LLMProvider)
	assert.InDelta(t, 0.2, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, "hold,sell,buy", cfg.ReconcilePrecedence)
}

func TestLoad_ClampsRetriesAndNews(t *testing.T) {
	t.Setenv("MAX_RETRIES", "9")
	t.Setenv("NEWS_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 5, cfg.NewsLimit)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gpt2")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDurationInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[adapters]\ncall_timeout = \"soon\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMissingCredentials(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"FINNHUB_API_KEY", "GROQ_API_KEY"}, cfg.Missing())

	cfg.FinnhubAPIKey = "x"
	cfg.LLMProvider = ProviderGemini
	assert.Equal(t, []string{"GEMINI_API_KEY"}, cfg.Missing())
}
