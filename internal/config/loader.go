package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "ENTITAG"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, ENTITAG_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "llm.base_url"
// resolve to "ENTITAG_LLM_BASE_URL".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetTypeByDefaultValue(true)
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper with a typed zero
// value.  Viper only resolves environment variables for keys it knows about,
// so without this step env-only settings would be invisible to Unmarshal.
// The zero values here are placeholders; real defaults come from
// ApplyDefaults after unmarshalling.
func registerKeys(v *viper.Viper) {
	zeros := map[string]interface{}{
		"server.host":             "",
		"server.port":             0,
		"server.mode":             "",
		"server.read_timeout":     time.Duration(0),
		"server.write_timeout":    time.Duration(0),
		"server.max_body_size":    int64(0),
		"server.shutdown_timeout": time.Duration(0),

		"log.level":              "",
		"log.format":             "",
		"log.output_paths":       []string(nil),
		"log.error_output_paths": []string(nil),

		"llm.base_url":                 "",
		"llm.api_key":                  "",
		"llm.model":                    "",
		"llm.temperature":              float64(0),
		"llm.max_tokens":               0,
		"llm.timeout_ms":               0,
		"llm.retry.max_retries":        0,
		"llm.retry.initial_backoff_ms": 0,
		"llm.retry.max_backoff_ms":     0,
		"llm.retry.backoff_multiplier": float64(0),

		"pipeline.chunk_size":    0,
		"pipeline.chunk_overlap": 0,
		"pipeline.max_retries":   0,
		"pipeline.concurrency":   0,

		"redis.enabled":       false,
		"redis.addr":          "",
		"redis.password":      "",
		"redis.db":            0,
		"redis.pool_size":     0,
		"redis.dial_timeout":  time.Duration(0),
		"redis.read_timeout":  time.Duration(0),
		"redis.write_timeout": time.Duration(0),
		"redis.ttl":           time.Duration(0),

		"metrics.enabled":   false,
		"metrics.path":      "",
		"metrics.namespace": "",
	}
	for key, zero := range zeros {
		v.SetDefault(key, zero)
	}
}

// Load reads the YAML file at configPath, merges any ENTITAG_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from ENTITAG_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	ENTITAG_<SECTION>_<FIELD>   e.g.  ENTITAG_LLM_API_KEY, ENTITAG_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file — rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// A change that produced an invalid config is skipped so the
			// application never observes a broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
