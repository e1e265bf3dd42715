// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

// Package config loads AutoLinker settings from defaults, an optional YAML
// file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/autolinker/autolinker/internal/auth"
	"github.com/autolinker/autolinker/internal/logging"
	"github.com/autolinker/autolinker/internal/store"
	"github.com/autolinker/autolinker/internal/xdg"
)

// Config is the complete application configuration.
type Config struct {
	Namespace string        `koanf:"namespace" json:"namespace,omitempty" jsonschema:"description=Prefix of every stored record key"`
	Log       LogConfig     `koanf:"log" json:"log,omitempty"`
	Store     StoreConfig   `koanf:"store" json:"store,omitempty"`
	Hasher    HasherConfig  `koanf:"hasher" json:"hasher,omitempty"`
	Metrics   MetricsConfig `koanf:"metrics" json:"metrics,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// StoreConfig selects the durable store backend.
type StoreConfig struct {
	Driver      string `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=memory,enum=sqlite,enum=postgres"`
	Path        string `koanf:"path" json:"path,omitempty" jsonschema:"description=SQLite database file"`
	DSN         string `koanf:"dsn" json:"dsn,omitempty" jsonschema:"description=PostgreSQL connection URL"`
	MaxRetries  int    `koanf:"max_retries" json:"max_retries,omitempty" jsonschema:"minimum=0,maximum=10"`
	RetryBaseMS int    `koanf:"retry_base_ms" json:"retry_base_ms,omitempty" jsonschema:"minimum=1"`
	AutoMigrate bool   `koanf:"auto_migrate" json:"auto_migrate,omitempty"`
}

// HasherConfig sets the argon2id cost.
type HasherConfig struct {
	Time      uint32 `koanf:"time" json:"time,omitempty" jsonschema:"minimum=1,maximum=16"`
	MemoryKiB uint32 `koanf:"memory_kib" json:"memory_kib,omitempty" jsonschema:"minimum=8,maximum=1048576"`
	Threads   uint8  `koanf:"threads" json:"threads,omitempty" jsonschema:"minimum=1"`
}

// MetricsConfig configures the metrics endpoint of the interactive shell.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address; empty disables the endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Namespace: auth.DefaultNamespace,
		Log: LogConfig{
			Format: "text",
			Level:  "warn",
		},
		Store: StoreConfig{
			Driver:      store.DriverSQLite,
			Path:        xdg.DatabaseFile(),
			MaxRetries:  store.DefaultMaxRetries,
			RetryBaseMS: int(store.DefaultRetryBase / time.Millisecond),
		},
		Hasher: HasherConfig{
			Time:      auth.DefaultHasherParams.Time,
			MemoryKiB: auth.DefaultHasherParams.Memory,
			Threads:   auth.DefaultHasherParams.Threads,
		},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"namespace":    "namespace",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"store-driver": "store.driver",
	"store-path":   "store.path",
	"store-dsn":    "store.dsn",
	"auto-migrate": "store.auto_migrate",
	"metrics-addr": "metrics.addr",
}

// Load builds the configuration.
//
// path names a YAML file. When explicit is false a missing file is ignored,
// so the default location can be probed. Only flags the user actually set
// override file values.
func Load(path string, explicit bool, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
			}
		case errors.Is(statErr, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(statErr)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverSQLite:
		if c.Store.Path == "" {
			return invalid("store.path", "store path is required for the sqlite driver")
		}
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return invalid("store.dsn", "store dsn is required for the postgres driver")
		}
	default:
		return invalid("store.driver", "unknown store driver %q", c.Store.Driver)
	}
	if c.Store.MaxRetries < 0 {
		return invalid("store.max_retries", "max retries cannot be negative")
	}
	if c.Store.RetryBaseMS < 1 {
		return invalid("store.retry_base_ms", "retry base must be at least 1ms")
	}

	if c.Hasher.Time < 1 || c.Hasher.MemoryKiB < 8 || c.Hasher.Threads < 1 {
		return invalid("hasher", "hasher needs time >= 1, memory_kib >= 8 and threads >= 1")
	}
	if c.Hasher.Time > auth.MaxHasherTime || c.Hasher.MemoryKiB > auth.MaxHasherMemory {
		return invalid("hasher", "hasher allows at most time %d and memory_kib %d", auth.MaxHasherTime, auth.MaxHasherMemory)
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Store.Driver,
		Path:        c.Store.Path,
		DSN:         c.Store.DSN,
		MaxRetries:  uint64(max(c.Store.MaxRetries, 0)), //nolint:gosec // clamped to non-negative
		RetryBase:   time.Duration(c.Store.RetryBaseMS) * time.Millisecond,
		AutoMigrate: c.Store.AutoMigrate,
	}
}

// HasherParams converts the hasher section.
func (c Config) HasherParams() auth.HasherParams {
	return auth.HasherParams{
		Time:    c.Hasher.Time,
		Memory:  c.Hasher.MemoryKiB,
		Threads: c.Hasher.Threads,
	}
}

// Keys returns the record keys for the configured namespace.
func (c Config) Keys() auth.Keys {
	return auth.NewKeys(c.Namespace)
}
