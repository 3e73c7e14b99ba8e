package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overrideKeys = []string{
	"PDF2EXCEL_INTERPRETER", "PDF2EXCEL_SCRIPT", "PDF2EXCEL_CACHE_DIR",
	"PDF2EXCEL_TIMEOUT", "PDF2EXCEL_PREFLIGHT", "PDF2EXCEL_DATA_DIR",
	"SERVER_HOST", "SERVER_PORT", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdf2excel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PDF2EXCEL_DATA_DIR", "/var/lib/pdf2excel")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "pdf2excel", cfg.App.Name)
	assert.Equal(t, 5*time.Minute, cfg.Bridge.Timeout)
	assert.False(t, cfg.Bridge.Preflight)
	assert.Equal(t, filepath.Join(os.TempDir(), "pdf2excel"), cfg.CacheDir())
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, filepath.Join("/var/lib/pdf2excel", "history.db"), cfg.HistoryDSN())
	assert.Equal(t, "127.0.0.1:8086", cfg.Addr())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
app:
  name: orders
bridge:
  interpreter_path: python3
  script_path: scripts/pdf_processor.py
  cache_dir: /var/cache/orders
  timeout: 90s
  preflight: true
server:
  port: 9000
history:
  driver: postgres
  postgres:
    dsn: postgres://u:p@db/orders
observability:
  log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.App.Name)
	assert.Equal(t, "python3", cfg.Bridge.InterpreterPath, "bare names stay bare")
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scripts", "pdf_processor.py"), cfg.Bridge.ScriptPath)
	assert.Equal(t, "/var/cache/orders", cfg.CacheDir())
	assert.Equal(t, 90*time.Second, cfg.Bridge.Timeout)
	assert.True(t, cfg.Bridge.Preflight)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db/orders", cfg.HistoryDSN())
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PDF2EXCEL_INTERPRETER", "/opt/python/bin/python3")
	t.Setenv("PDF2EXCEL_SCRIPT", "/srv/pdf_processor.py")
	t.Setenv("PDF2EXCEL_CACHE_DIR", "/tmp/cache")
	t.Setenv("PDF2EXCEL_TIMEOUT", "45s")
	t.Setenv("PDF2EXCEL_PREFLIGHT", "true")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "8181")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/h.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/python/bin/python3", cfg.Bridge.InterpreterPath)
	assert.Equal(t, "/srv/pdf_processor.py", cfg.Bridge.ScriptPath)
	assert.Equal(t, "/tmp/cache", cfg.CacheDir())
	assert.Equal(t, 45*time.Second, cfg.Bridge.Timeout)
	assert.True(t, cfg.Bridge.Preflight)
	assert.Equal(t, "0.0.0.0:8181", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "/tmp/h.db", cfg.HistoryDSN())
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app name", func(c *Config) { c.App.Name = " " }},
		{"app name with separator", func(c *Config) { c.App.Name = "a/b" }},
		{"app name with backslash", func(c *Config) { c.App.Name = `a\b` }},
		{"app name dot", func(c *Config) { c.App.Name = "." }},
		{"app name parent", func(c *Config) { c.App.Name = ".." }},
		{"negative timeout", func(c *Config) { c.Bridge.Timeout = -time.Second }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad history driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.History.Driver = "postgres" }},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.History.Enabled = false
	cfg.History.Driver = "mysql"
	assert.NoError(t, cfg.Validate(), "disabled history is not validated")
}
