package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.ModelEnabled())
	assert.Equal(t, 10, cfg.Analysis.MinCodeLength)
	assert.Equal(t, "gemma-7b-it", cfg.Model.Alternate.Model)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	path := writeConfig(t, `
server:
  port: 9090
model:
  provider: openai
  api_key: ${TEST_OPENAI_KEY}
  name: gpt-4o
analysis:
  strategy: model
  request_timeout: 5s
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.True(t, cfg.ModelEnabled())
	assert.Equal(t, "model", cfg.Analysis.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Analysis.RequestTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched sections keep their defaults
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Model.Alternate.BaseURL)
	assert.Equal(t, 10, cfg.Analysis.MinCodeLength)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"provider": "model:\n  provider: anthropic\n",
		"strategy": "analysis:\n  strategy: sometimes\n",
		"mode":     "analysis:\n  default_mode: explain\n",
		"bounds":   "analysis:\n  min_code_length: 50\n  max_code_length: 10\n",
		"port":     "server:\n  port: 0\n",
		"limit":    "rate_limit:\n  enabled: true\n  burst: 0\n",
		"yaml":     "server: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yaml", Path())
	t.Setenv("CONFIG_PATH", "/etc/refine.yaml")
	assert.Equal(t, "/etc/refine.yaml", Path())
}
