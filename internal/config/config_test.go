package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(home); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.EnableCORS)
	assert.Equal(t, time.Hour, cfg.SweepAge)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
}

func TestLoadFromFile(t *testing.T) {
	home := isolate(t)

	content := `{"port": 9001, "debug": true, "sweep_age": "30m"}`
	require.NoError(t, os.WriteFile(filepath.Join(home, "tradingagents-config.json"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 30*time.Minute, cfg.SweepAge)
	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TRADINGAGENTS_PORT", "7777")
	t.Setenv("TRADINGAGENTS_ENABLE_CORS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Port)
	assert.False(t, cfg.EnableCORS)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(home, "tradingagents-config.json"), []byte("{not json"), 0644))

	_, err := Load()
	assert.Error(t, err)
}
