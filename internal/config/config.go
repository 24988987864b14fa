// Package config resolves recently's settings from the config file, the
// environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/maorbril/recently/internal/recent"
)

const (
	// EnvPrefix prefixes every environment override, e.g. RECENTLY_FILE.
	EnvPrefix = "RECENTLY"

	DefaultLimit    = 20
	DefaultLogLevel = "warn"
)

// Config holds the resolved settings.
type Config struct {
	// File is the recent files document. Empty means ~/.recently-used.
	File string `mapstructure:"file" toml:"file"`

	// Limit is the default number of entries listed.
	Limit int `mapstructure:"limit" toml:"limit"`

	LogLevel string `mapstructure:"log_level" toml:"log_level"`

	// TelemetryKey enables anonymous usage events when set.
	TelemetryKey string `mapstructure:"telemetry_key" toml:"telemetry_key"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Limit:    DefaultLimit,
		LogLevel: DefaultLogLevel,
	}
}

// DefaultFile returns the config file location under the user config
// directory.
func DefaultFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "recently", "config.toml"), nil
}

// Load reads cfgFile, or the default config file when cfgFile is empty, and
// applies environment overrides on top. Only an explicitly named file has to
// exist.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("file", def.File)
	v.SetDefault("limit", def.Limit)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("telemetry_key", def.TelemetryKey)

	path := cfgFile
	if path == "" {
		if p, err := DefaultFile(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as TOML to path, creating parent directories. An existing
// file is only replaced when overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s: %w", path, fs.ErrExist)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config %s: %w", path, err)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// RecentFile returns the recent files document to use, expanding a leading
// "~/" in File. An empty File resolves to ~/.recently-used.
func (c *Config) RecentFile() (string, error) {
	file := c.File
	if file != "" && file != "~" && !strings.HasPrefix(file, "~/") {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if file == "" {
		return recent.DefaultPath(home), nil
	}
	return filepath.Join(home, strings.TrimPrefix(file, "~")), nil
}
