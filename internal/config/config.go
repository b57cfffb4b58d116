// Package config manages pricecmp configuration and the .pricecmp directory
// structure. It handles loading, saving, and initializing the configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	Dir          = ".pricecmp"
	ConfigFile   = "config"
	DatabaseFile = "pricecmp.db"
)

// Defaults for a fresh configuration.
const (
	DefaultBackend           = "sqlite"
	DefaultListen            = "127.0.0.1:8730"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultRequestsPerMinute = 600
)

// Environment variables that override the file.
const (
	EnvBackend   = "PRICECMP_BACKEND"
	EnvListen    = "PRICECMP_LISTEN"
	EnvLogLevel  = "PRICECMP_LOG_LEVEL"
	EnvLogFormat = "PRICECMP_LOG_FORMAT"
)

var (
	validBackends   = []string{"sqlite", "bolt", "memory"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config represents the pricecmp configuration
type Config struct {
	Backend           string `toml:"backend"`
	Database          string `toml:"database"` // relative paths resolve against the .pricecmp directory
	Listen            string `toml:"listen"`
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	path              string // path to .pricecmp directory
}

// Default returns a configuration rooted at dir with default values
func Default(dir string) *Config {
	return &Config{
		Backend:           DefaultBackend,
		Database:          DatabaseFile,
		Listen:            DefaultListen,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		RequestsPerMinute: DefaultRequestsPerMinute,
		path:              dir,
	}
}

// FindRoot finds the .pricecmp directory by walking up from the current directory
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		p := filepath.Join(dir, Dir)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a pricecmp directory (or any parent up to root); run 'pricecmp init'")
		}
		dir = parent
	}
}

// Load finds the .pricecmp directory and loads its configuration
func Load() (*Config, error) {
	dir, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration from the given .pricecmp directory,
// fills defaults for missing keys and applies environment overrides
func LoadFrom(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default(dir)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = dir
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	if !contains(validBackends, c.Backend) {
		return fmt.Errorf("invalid backend %q (want one of %s)", c.Backend, strings.Join(validBackends, ", "))
	}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (want one of %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (want one of %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}
	if c.Backend != "memory" && c.Database == "" {
		return fmt.Errorf("database path is required for backend %q", c.Backend)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// Path returns the path to the .pricecmp directory
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the absolute path to the database file
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Database) {
		return c.Database
	}
	return filepath.Join(c.path, c.Database)
}

// Initialize creates a new .pricecmp directory inside parent
func Initialize(parent, backend string) (*Config, error) {
	p := filepath.Join(parent, Dir)

	// Check if already initialized
	if _, err := os.Stat(p); err == nil {
		return nil, fmt.Errorf("pricecmp directory already exists at %s", p)
	}

	cfg := Default(p)
	if backend != "" {
		cfg.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(p)
		return nil, err
	}

	return cfg, nil
}
