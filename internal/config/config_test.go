package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
emailvision:
  api: "apimember"
  server: "emvapi.example.net"
  login: "api-user"
  password: "s3cret"
  api_key: "KEY-123"
  secure: false
  timeout_seconds: 45

logging:
  level: "debug"
  redact_pii: false

stub:
  addr: "127.0.0.1:9000"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "apimember", cfg.EmailVision.API)
	assert.Equal(t, "emvapi.example.net", cfg.EmailVision.Server)
	assert.Equal(t, "api-user", cfg.EmailVision.Login)
	assert.Equal(t, "s3cret", cfg.EmailVision.Password)
	assert.Equal(t, "KEY-123", cfg.EmailVision.APIKey)
	assert.False(t, cfg.EmailVision.IsSecure())
	assert.Equal(t, 45*time.Second, cfg.EmailVision.Timeout())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Redact())
	assert.Equal(t, "127.0.0.1:9000", cfg.Stub.Addr)

	cc := cfg.EmailVision.ClientConfig()
	assert.Equal(t, "apimember", cc.API)
	assert.True(t, cc.Insecure)
	assert.Equal(t, 45*time.Second, cc.Timeout)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("emailvision:\n  server: \"emvapi.example.net\"\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "apiccmd", cfg.EmailVision.API)
	assert.True(t, cfg.EmailVision.IsSecure())
	assert.Equal(t, 30, cfg.EmailVision.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redact())
	assert.Equal(t, ":8089", cfg.Stub.Addr)
	assert.False(t, cfg.EmailVision.ClientConfig().Insecure)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "apiccmd", cfg.EmailVision.API)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("emailvision: [unclosed"), 0644)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EMAILVISION_API", "apitransactional")
	t.Setenv("EMAILVISION_SERVER_URL", "env.example.net")
	t.Setenv("EMAILVISION_API_LOGIN", "env-user")
	t.Setenv("EMAILVISION_API_PASSWORD", "env-pass")
	t.Setenv("EMAILVISION_API_KEY", "ENV-KEY")
	t.Setenv("EMAILVISION_SECURE", "false")
	t.Setenv("EMAILVISION_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "apitransactional", cfg.EmailVision.API)
	assert.Equal(t, "env.example.net", cfg.EmailVision.Server)
	assert.Equal(t, "env-user", cfg.EmailVision.Login)
	assert.Equal(t, "env-pass", cfg.EmailVision.Password)
	assert.Equal(t, "ENV-KEY", cfg.EmailVision.APIKey)
	assert.False(t, cfg.EmailVision.IsSecure())
	assert.Equal(t, 5*time.Second, cfg.EmailVision.Timeout())
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("EMAILVISION_SECURE", "maybe")
	t.Setenv("EMAILVISION_TIMEOUT_SECONDS", "soon")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)
	assert.True(t, cfg.EmailVision.IsSecure())
	assert.Equal(t, 30, cfg.EmailVision.TimeoutSeconds)
}
