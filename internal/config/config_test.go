package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 0, cfg.Payments.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Payments.ProcessingTimeout)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("environment: production\npayments:\n  max_attempts: 3\nhttp:\n  addr: \":9000\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("PROPERTYHUB_HTTP_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.Payments.MaxAttempts)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
}

func TestValidateRejectsNegativeAttempts(t *testing.T) {
	t.Setenv("PROPERTYHUB_PAYMENTS_MAX_ATTEMPTS", "-1")

	_, err := Load("")
	require.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
