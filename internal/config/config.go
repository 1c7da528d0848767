// Package config loads SakuraTree configuration from TOML files,
// merging global and project-level settings over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// PathsConfig holds path configuration.
type PathsConfig struct {
	TreeDir string `toml:"tree_dir"`
}

// EngineConfig holds worker-pool settings.
type EngineConfig struct {
	Workers int `toml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for SakuraTree.
type Config struct {
	Version string        `toml:"version"`
	Paths   PathsConfig   `toml:"paths"`
	Engine  EngineConfig  `toml:"engine"`
	Logging LoggingConfig `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Paths: PathsConfig{
			TreeDir: "trees",
		},
		Engine: EngineConfig{
			Workers: 2,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load loads configuration from file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadFromDir loads configuration from the standard locations.
// Applies in order: defaults -> ~/.sakura/config.toml ->
// <dir>/.sakura/config.toml, later configs overriding earlier ones.
func LoadFromDir(dir string) (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		globalConfig := filepath.Join(home, ".sakura", "config.toml")
		if data, err := os.ReadFile(globalConfig); err == nil {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	projectConfig := filepath.Join(dir, ".sakura", "config.toml")
	if data, err := os.ReadFile(projectConfig); err == nil {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing project config: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Paths.TreeDir == "" {
		return fmt.Errorf("tree_dir is required")
	}
	return nil
}

// TreeDir returns the absolute tree directory path.
func (c *Config) TreeDir(baseDir string) string {
	if filepath.IsAbs(c.Paths.TreeDir) {
		return c.Paths.TreeDir
	}
	return filepath.Join(baseDir, c.Paths.TreeDir)
}

// LogFile returns the absolute log file path, empty when file logging
// is disabled.
func (c *Config) LogFile(baseDir string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(baseDir, c.Logging.File)
}
