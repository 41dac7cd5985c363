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
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, 5*time.Minute, cfg.GenerationTimeout)
	assert.Equal(t, "lorem", cfg.LLMProvider)
	assert.Equal(t, "lorem-fast", cfg.LLMModel)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("PROGRESS_STEP", "10")
	t.Setenv("DRIVE_PUBLISH", "not-a-bool")
	t.Setenv("SYSTEM_ADMINS", " alice, ,bob ")

	cfg := Load()
	assert.Equal(t, "test_", cfg.TablePrefix)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 10, cfg.ProgressStep)
	assert.False(t, cfg.DrivePublish)
	assert.Equal(t, []string{"alice", "bob"}, cfg.SystemAdmins)
	assert.True(t, cfg.IsSystemAdmin("bob"))
	assert.False(t, cfg.IsSystemAdmin("carol"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"prod without jwks", func(c *Config) { c.Environment = "prod" }},
		{"anthropic without key", func(c *Config) { c.LLMProvider = "anthropic" }},
		{"publish without credentials", func(c *Config) { c.DrivePublish = true }},
		{"zero timeout", func(c *Config) { c.GenerationTimeout = 0 }},
		{"zero step", func(c *Config) { c.ProgressStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "dev")
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSetupLogFileKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lisa-2024-01-01T00-00-00.000.log", "lisa-2024-01-02T00-00-00.000.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "lisa-2024-01-01T00-00-00.000.log"))
}
