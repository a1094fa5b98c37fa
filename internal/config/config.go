// Package config loads runtime settings from a fieldsync.yaml file and
// FIELDSYNC_* environment variables, environment taking precedence.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
)

// Config holds every tunable of the process.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string `mapstructure:"data_dir"`

	Remote RemoteConfig `mapstructure:"remote"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// RemoteConfig points at the hosted backend.
type RemoteConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig tunes the sync engine and connectivity monitor.
type SyncConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

// CacheConfig tunes the edge cache worker.
type CacheConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration. An explicit file path is honored when given;
// otherwise fieldsync.yaml is searched in the working directory and under
// /etc/fieldsync. A missing file is fine, defaults and environment still
// apply.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("sync.interval", 30*time.Second)
	v.SetDefault("sync.max_attempts", 5)
	v.SetDefault("sync.probe_interval", 10*time.Second)
	v.SetDefault("cache.retention", 7*24*time.Hour)
	v.SetDefault("cache.sweep_interval", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetEnvPrefix("FIELDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("fieldsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fieldsync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "reading configuration", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "parsing configuration", err)
	}
	return &cfg, nil
}

// Validate checks the settings a running process cannot do without.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return apperrors.New(apperrors.ErrValidation, "data_dir is required")
	}
	if c.Remote.URL == "" {
		return apperrors.New(apperrors.ErrValidation, "remote.url is required")
	}
	if c.Sync.MaxAttempts < 1 {
		return apperrors.New(apperrors.ErrValidation, "sync.max_attempts must be at least 1")
	}
	return nil
}
