package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// PIPSPEC_CACHE_BACKEND=redis sets cache.backend.
const EnvPrefix = "PIPSPEC"

// Loader reads configuration from a file and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults registered, so that every key
// can be overridden from the environment even without a file.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := NewConfig()
	v.SetDefault("index_url", d.IndexURL)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("outdated.concurrency", d.Outdated.Concurrency)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.max_body_bytes", d.Serve.MaxBodyBytes)

	return &Loader{v: v}
}

// Load reads the file at path and applies environment overrides.
//
// With an empty path the default location is tried and a missing file is
// not an error. An explicit path must exist.
func (l *Loader) Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, &LoadError{Path: path, Message: "failed to read config file", Err: err}
		}
	} else if explicit {
		return nil, &LoadError{Path: path, Message: "config file not found", Err: err}
	}

	cfg := NewConfig()
	if err := l.v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse config file", Err: err}
	}
	cfg.Cache.Backend = Backend(strings.ToLower(string(cfg.Cache.Backend)))

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Message: "configuration validation failed", Err: err}
	}
	return cfg, nil
}

// ConfigFileUsed returns the file read by the last Load, if any.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Load is a convenience wrapper around [Loader.Load].
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func decodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToBackendHookFunc(),
	)
}

func stringToBackendHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(Backend("")) {
			return data, nil
		}
		return Backend(data.(string)), nil
	}
}
