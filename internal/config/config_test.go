package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.Equal(t, "/api", cfg.Server.BasePath)
}

func TestFromYAMLOverridesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte(`api:
  base_url: https://hr.example.com
  timeout: 15s
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "https://hr.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, ":3001", cfg.Server.Addr)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"relative url":   "api:\n  base_url: localhost:3001\n",
		"bad base path":  "server:\n  base_path: api\n",
		"bad log level":  "log:\n  level: loud\n",
		"bad log format": "log:\n  format: xml\n",
		"negative":       "api:\n  timeout: -1s\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("server:\n  addr: \":8080\"\n"), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
