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
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "EVENTS_BACKEND", "DISPLAY_LOG_LIMIT", "TEMPLATE_RETENTION", "SUBMIT_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8084", cfg.Port)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, "none", cfg.EventsBackend)
	assert.Equal(t, 1200, cfg.DisplayLogLimit)
	assert.Equal(t, 24*time.Hour, cfg.TemplateRetention)
	assert.Equal(t, "20-M", cfg.SubmitRateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DISPLAY_LOG_LIMIT", "50")
	t.Setenv("TEMPLATE_RETENTION", "2h")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, 50, cfg.DisplayLogLimit)
	assert.Equal(t, 2*time.Hour, cfg.TemplateRetention)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DISPLAY_LOG_LIMIT", "-3")
	t.Setenv("TEMPLATE_RETENTION", "soon")

	cfg := Load()
	assert.Equal(t, 1200, cfg.DisplayLogLimit)
	assert.Equal(t, 24*time.Hour, cfg.TemplateRetention)
}

func TestLoadEnv_ReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7000\nNATS_URL=nats://bus:4222\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("PORT", "9100")
	t.Setenv("NATS_URL", "")
	require.NoError(t, os.Unsetenv("NATS_URL"))

	require.NoError(t, LoadEnv())
	cfg := Load()
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "nats://bus:4222", cfg.NatsURL)
}
