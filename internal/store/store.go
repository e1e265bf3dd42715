// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

// Package store provides the durable key-value storage that the identity
// core persists its records through.
//
// Three backends implement KV:
//   - Memory - process-local map, used by tests and ephemeral runs
//   - SQLiteKV - a single local database file, the default client backend
//   - PostgresKV - a shared PostgreSQL table with retry on transient failures
//
// Values are opaque bytes. Callers own the encoding of what they store.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when no value exists for the key.
var ErrNotFound = errors.New("not found")

// KV is a durable store of named values.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	// The write is durable when Set returns nil.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases backend resources.
	Close() error
}
