package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, api.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, api.ModelGemini, cfg.Model)
	assert.Equal(t, filepath.Join(dir, "drop"), cfg.DropDir)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.Equal(t, filepath.Join(dir, "mars.log"), cfg.LogFile)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig(dir)
	cfg.BaseURL = "http://backend:9000"
	cfg.Model = api.ModelOllama
	cfg.TimeoutSeconds = 30
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", loaded.BaseURL)
	assert.Equal(t, api.ModelOllama, loaded.Model)
	assert.Equal(t, 30, loaded.TimeoutSeconds)
}

func TestGetAndSet(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())

	require.NoError(t, cfg.Set("base_url", "http://example.com"))
	value, err := cfg.Get("base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", value)

	require.NoError(t, cfg.Set("timeout_seconds", "45"))
	assert.Equal(t, 45, cfg.TimeoutSeconds)

	require.NoError(t, cfg.Set("model", api.ModelOllama))
	assert.Equal(t, api.ModelOllama, cfg.Model)
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())

	assert.Error(t, cfg.Set("model", "gpt-4"))
	assert.Error(t, cfg.Set("timeout_seconds", "soon"))
	assert.Error(t, cfg.Set("timeout_seconds", "-1"))
	assert.Error(t, cfg.Set("no_such_key", "x"))

	_, err := cfg.Get("no_such_key")
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.TimeoutSeconds = 30
	assert.Equal(t, 30*time.Second, cfg.Timeout())

	cfg.TimeoutSeconds = 0
	assert.Equal(t, api.DefaultTimeout, cfg.Timeout())
}
