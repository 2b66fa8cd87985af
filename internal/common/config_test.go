package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, int64(20*1024*1024), config.Limits.MaxUploadBytes)
	assert.Equal(t, 5, config.Pipeline.DefaultTopK)
	assert.True(t, config.Pipeline.StrictTranscription)
	assert.False(t, config.LLM.Enabled)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.False(t, config.Retention.Enabled)
	assert.False(t, config.TTS.S2SEnabled)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[limits]
max_upload_bytes = 1024
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9001
`), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later file wins, untouched keys keep earlier/default values
	assert.Equal(t, 9001, config.Server.Port)
	assert.Equal(t, int64(1024), config.Limits.MaxUploadBytes)
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/loquor.toml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOQUOR_SERVER_PORT", "7070")
	t.Setenv("LOQUOR_STRICT_TRANSCRIPTION", "false")
	t.Setenv("LOQUOR_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.False(t, config.Pipeline.StrictTranscription)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, config.CORS.AllowedOrigins)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 6060, "0.0.0.0")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the config untouched
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestRequestTimeout(t *testing.T) {
	config := NewDefaultConfig()
	assert.Equal(t, "60s", config.Limits.RequestTimeout)
	assert.Equal(t, float64(60), config.RequestTimeout().Seconds())

	config.Limits.RequestTimeout = "garbage"
	assert.Equal(t, float64(60), config.RequestTimeout().Seconds())

	config.Limits.RequestTimeout = "5s"
	assert.Equal(t, float64(5), config.RequestTimeout().Seconds())
}
