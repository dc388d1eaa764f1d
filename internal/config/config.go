// Package config loads pipspec settings from an optional YAML file and
// PIPSPEC_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

const appName = "pipspec"

// Backend selects the cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendNone  Backend = "none"
)

// Defaults.
const (
	DefaultCacheTTL     = 6 * time.Hour
	DefaultConcurrency  = 8
	DefaultServeAddr    = "127.0.0.1:8080"
	DefaultMaxBodyBytes = 1 << 20
	maxConcurrency      = 64
)

// Config is the full settings tree.
type Config struct {
	IndexURL string         `mapstructure:"index_url" yaml:"index_url" json:"index_url"`
	Strict   bool           `mapstructure:"strict" yaml:"strict" json:"strict"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache" json:"cache"`
	Outdated OutdatedConfig `mapstructure:"outdated" yaml:"outdated" json:"outdated"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve" json:"serve"`
}

// CacheConfig configures response caching for index lookups.
type CacheConfig struct {
	Backend  Backend       `mapstructure:"backend" yaml:"backend" json:"backend"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
	Dir      string        `mapstructure:"dir" yaml:"dir" json:"dir"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url" json:"redis_url"`
}

// OutdatedConfig configures the outdated check.
type OutdatedConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr" json:"addr"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		IndexURL: pipfile.DefaultIndexURL,
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     DefaultCacheTTL,
			Dir:     defaultCacheDir(),
		},
		Outdated: OutdatedConfig{Concurrency: DefaultConcurrency},
		Serve:    ServeConfig{Addr: DefaultServeAddr, MaxBodyBytes: DefaultMaxBodyBytes},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "index_url")
	}
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.dir must be set for the file backend")
		}
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url must be set for the redis backend")
		}
	case BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	if c.Outdated.Concurrency < 1 || c.Outdated.Concurrency > maxConcurrency {
		return errors.New(errors.ErrCodeInvalidConfig, "outdated.concurrency must be between 1 and %d, got %d", maxConcurrency, c.Outdated.Concurrency)
	}
	if c.Serve.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.addr cannot be empty")
	}
	if c.Serve.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.max_body_bytes must be positive")
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/pipspec/config.yaml, falling back to
// ~/.config.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName, "config.yaml")
	}
	return filepath.Join(home, ".config", appName, "config.yaml")
}

// defaultCacheDir returns the cache directory using XDG standard (~/.cache/pipspec/).
func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// LoadError is returned when the settings file cannot be read or is invalid.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }
