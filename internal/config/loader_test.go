package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 8080
  mode: "test"
log:
  level: "debug"
  format: "console"
llm:
  base_url: "http://localhost:11434/v1"
  model: "llama3"
  api_key: "local-key"
pipeline:
  chunk_size: 1500
  chunk_overlap: 150
  concurrency: 2
redis:
  enabled: true
  addr: "localhost:6379"
metrics:
  enabled: true
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 1500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 150, cfg.Pipeline.ChunkOverlap)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  port: 70000\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  port: 9000\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 2000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 200, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
	assert.Equal(t, DefaultRedisTTL, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"ENTITAG_SERVER_PORT": "9999",
		"ENTITAG_LLM_API_KEY": "env-key",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
}

func TestLoadFromEnv_DefaultsOnly(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setEnvVars(t, map[string]string{
		"ENTITAG_SERVER_PORT":         "9999",
		"ENTITAG_LLM_BASE_URL":        "http://localhost:11434/v1",
		"ENTITAG_LLM_API_KEY":         "env-key",
		"ENTITAG_REDIS_ENABLED":       "true",
		"ENTITAG_REDIS_ADDR":          "redis:6379",
		"ENTITAG_PIPELINE_CHUNK_SIZE": "512",
		"ENTITAG_SERVER_READ_TIMEOUT": "45s",
	})

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 512, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
}

func TestMustLoad(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() { MustLoad(path) })
	assert.Panics(t, func() { MustLoad("non_existent.yaml") })
}
