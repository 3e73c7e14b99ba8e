// Package config provides configuration loading for pdf2excel.
// Supports YAML files, .env files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/pdf2excel/internal/provision"
)

// Config holds all configuration for pdf2excel.
type Config struct {
	App           AppConfig           `yaml:"app"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Server        ServerConfig        `yaml:"server"`
	History       HistoryConfig       `yaml:"history"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AppConfig identifies the application. Name also names the extraction
// cache directory.
type AppConfig struct {
	Name string `yaml:"name"`
}

// BridgeConfig holds interpreter bridge settings.
type BridgeConfig struct {
	InterpreterPath string        `yaml:"interpreter_path"`
	ScriptPath      string        `yaml:"script_path"`
	CacheDir        string        `yaml:"cache_dir"`
	Timeout         time.Duration `yaml:"timeout"`
	Preflight       bool          `yaml:"preflight"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// HistoryConfig holds conversion history settings.
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. A .env file in the working directory is loaded first when
// present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		cfg.Bridge.ScriptPath = ResolveRelativePath(path, cfg.Bridge.ScriptPath)
		cfg.Bridge.CacheDir = ResolveRelativePath(path, cfg.Bridge.CacheDir)
		cfg.History.SQLite.Path = ResolveRelativePath(path, cfg.History.SQLite.Path)
		// Bare interpreter names are looked up on PATH.
		if strings.ContainsAny(cfg.Bridge.InterpreterPath, `/\`) {
			cfg.Bridge.InterpreterPath = ResolveRelativePath(path, cfg.Bridge.InterpreterPath)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with defaults for a desktop install.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "pdf2excel",
		},
		Bridge: BridgeConfig{
			Timeout: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     6 * time.Minute,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   5 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Driver:  "sqlite",
			SQLite: SQLiteConfig{
				Path: filepath.Join(DataDir(), "history.db"),
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// DataDir is where persistent state lives: $PDF2EXCEL_DATA_DIR, else
// ~/.pdf2excel, else a directory under the system temp dir.
func DataDir() string {
	if v := os.Getenv("PDF2EXCEL_DATA_DIR"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".pdf2excel")
	}
	return filepath.Join(os.TempDir(), "pdf2excel-data")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Name) == "" {
		return fmt.Errorf("app name cannot be empty")
	}

	// The name becomes a directory under the temp dir that extract --force
	// removes, so it must be a single real path element.
	if strings.ContainsAny(c.App.Name, `/\`) || c.App.Name == "." || c.App.Name == ".." ||
		filepath.Base(c.App.Name) != c.App.Name {
		return fmt.Errorf("app name must be a plain directory name: %q", c.App.Name)
	}

	if c.Bridge.Timeout < 0 {
		return fmt.Errorf("bridge timeout cannot be negative: %s", c.Bridge.Timeout)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite":
			if c.History.SQLite.Path == "" {
				return fmt.Errorf("history sqlite path cannot be empty")
			}
		case "postgres":
			if c.History.Postgres.DSN == "" {
				return fmt.Errorf("history postgres dsn cannot be empty")
			}
		default:
			return fmt.Errorf("invalid history driver: %s", c.History.Driver)
		}
	}

	switch strings.ToLower(c.Observability.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Observability.LogFormat)
	}

	return nil
}

// HistoryDSN returns the connection string for the configured driver.
func (c *Config) HistoryDSN() string {
	if c.History.Driver == "sqlite" {
		return c.History.SQLite.Path
	}
	return c.History.Postgres.DSN
}

// CacheDir returns the extraction cache root: bridge.cache_dir when set,
// else <temp>/<app name>.
func (c *Config) CacheDir() string {
	if c.Bridge.CacheDir != "" {
		return c.Bridge.CacheDir
	}
	return provision.DefaultRoot(c.App.Name)
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDF2EXCEL_INTERPRETER"); v != "" {
		cfg.Bridge.InterpreterPath = v
	}

	if v := os.Getenv("PDF2EXCEL_SCRIPT"); v != "" {
		cfg.Bridge.ScriptPath = v
	}

	if v := os.Getenv("PDF2EXCEL_CACHE_DIR"); v != "" {
		cfg.Bridge.CacheDir = v
	}

	if v := os.Getenv("PDF2EXCEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Bridge.Timeout = d
		}
	}

	if v := os.Getenv("PDF2EXCEL_PREFLIGHT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bridge.Preflight = b
		}
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.History.Driver = "sqlite"
			cfg.History.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.History.Driver = "postgres"
			cfg.History.Postgres.DSN = v
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
