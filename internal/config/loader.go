// Package config provides configuration loading, defaults, and validation for
// pubconcept.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PUBCONCEPT"

// bindKeys lists every leaf key so AutomaticEnv can resolve it during
// Unmarshal even when no config file mentions it.
var bindKeys = []string{
	"server.port", "server.read_timeout", "server.write_timeout", "server.max_body_size", "server.shutdown_timeout",
	"pipeline.allow_set_path", "pipeline.relevance_dir", "pipeline.strict", "pipeline.sinks",
	"database.host", "database.port", "database.user", "database.password", "database.db_name",
	"database.ssl_mode", "database.max_conns", "database.min_conns", "database.migration_path",
	"neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.database",
	"redis.addr", "redis.password", "redis.db", "redis.default_ttl", "redis.key_prefix",
	"kafka.brokers", "kafka.topic", "kafka.batch_size",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.use_ssl", "minio.output_prefix",
	"metrics.enabled", "metrics.namespace",
	"log.level", "log.format", "log.output",
}

// newViper builds a Viper instance with YAML file type, PUBCONCEPT_ env
// prefix, automatic env binding and a "." -> "_" key replacer, so that
// "database.host" resolves to "PUBCONCEPT_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range bindKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges PUBCONCEPT_* environment
// overrides, applies defaults and validates the result. An empty configPath
// behaves like LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from PUBCONCEPT_* environment variables and
// defaults alone.
//
//	PUBCONCEPT_<SECTION>_<FIELD>   e.g.  PUBCONCEPT_DATABASE_HOST
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

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

// Watch monitors configPath and invokes onChange with the re-parsed Config
// whenever the file changes. The API server uses it to hot-reload the log
// level. Invalid intermediate states are reported to onError and skipped.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad wraps Load and panics on error. main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
