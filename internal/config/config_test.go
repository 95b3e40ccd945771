package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(path, []byte(`
env: dev
api:
  base_url: http://api.test
  timeout: 5s
http:
  secure_cookie: true
state:
  driver: redis
site:
  themes: [brass, cyan]
console:
  uploads:
    - id: poseidon
      action: /api/upload
      field: file
      accept: image/*
      refresh: gallery
  prompts:
    - id: sea
      title: Sea
      text: Draw the tide
`), 0o644)
	require.NoError(t, err)

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "http://api.test", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.State.Driver)
	assert.Equal(t, []string{"brass", "cyan"}, cfg.Site.Themes)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.SecureCookie)
	assert.Equal(t, 3*time.Second, cfg.Notify.DismissAfter)

	require.Len(t, cfg.Console.Uploads, 1)
	assert.Equal(t, "gallery", cfg.Console.Uploads[0].Refresh)
	require.Len(t, cfg.Console.Prompts, 1)
	assert.Equal(t, "Draw the tide", cfg.Console.Prompts[0].Text)
}

func TestLoadPath_Missing(t *testing.T) {
	_, err := LoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("API_BASE_URL", "http://from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "http://from-env", cfg.API.BaseURL)
	assert.Equal(t, []string{"brass", "cyan", "light"}, cfg.Site.Themes)
	assert.Equal(t, "memory", cfg.State.Driver)
	assert.False(t, cfg.HTTP.SecureCookie)
}
