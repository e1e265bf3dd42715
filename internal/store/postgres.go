// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default retry policy for transient PostgreSQL failures.
const (
	DefaultMaxRetries = 3
	DefaultRetryBase  = 50 * time.Millisecond
)

// poolIface is the subset of *pgxpool.Pool used here; pgxmock satisfies it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresKV implements KV on a PostgreSQL kv table.
type PostgresKV struct {
	pool       poolIface
	maxRetries uint64
	retryBase  time.Duration
}

// PostgresOption configures a PostgresKV.
type PostgresOption func(*PostgresKV)

// WithRetry sets how many times a transient failure is retried and the base
// delay of the Fibonacci backoff between attempts.
func WithRetry(maxRetries uint64, base time.Duration) PostgresOption {
	return func(s *PostgresKV) {
		s.maxRetries = maxRetries
		if base > 0 {
			s.retryBase = base
		}
	}
}

// NewPostgresKV wraps an existing pool.
func NewPostgresKV(pool poolIface, opts ...PostgresOption) *PostgresKV {
	s := &PostgresKV{
		pool:       pool,
		maxRetries: DefaultMaxRetries,
		retryBase:  DefaultRetryBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects to dsn and verifies the connection.
// The kv table must exist; see Migrator.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresKV, error) {
	if dsn == "" {
		return nil, oops.Code("STORE_CONFIG_INVALID").Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("STORE_OPEN_FAILED").With("operation", "ping").Wrap(err)
	}
	return NewPostgresKV(pool, opts...), nil
}

// Get returns the value stored under key.
func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("STORE_READ_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, key, value)
		return err
	})
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresKV) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresKV) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(s.retryBase))
	//nolint:wrapcheck // callers attach codes
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isRetryable reports whether err is a transient server condition worth
// another attempt.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsConnectionException(pgErr.Code) ||
		pgerrcode.IsTransactionRollback(pgErr.Code) ||
		pgErr.Code == pgerrcode.TooManyConnections ||
		pgErr.Code == pgerrcode.AdminShutdown ||
		pgErr.Code == pgerrcode.CannotConnectNow
}
