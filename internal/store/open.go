// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package store

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Supported backend drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver      string
	Path        string // sqlite database file
	DSN         string // postgres connection string
	MaxRetries  uint64
	RetryBase   time.Duration
	AutoMigrate bool // apply postgres migrations before opening
}

// Open returns the KV backend described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres:
		if opts.AutoMigrate {
			if err := migrateUp(opts.DSN); err != nil {
				return nil, err
			}
		}
		return OpenPostgres(ctx, opts.DSN, WithRetry(opts.MaxRetries, opts.RetryBase))
	default:
		return nil, oops.Code("STORE_CONFIG_INVALID").
			With("driver", opts.Driver).
			Errorf("unknown store driver %q", opts.Driver)
	}
}

func migrateUp(dsn string) (err error) {
	m, err := NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}
