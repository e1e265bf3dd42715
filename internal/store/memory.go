// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/oops"
)

// Memory is an in-process KV. Values do not survive the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed(key)
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed(key)
	}
	m.values[key] = slices.Clone(value)
	return nil
}

// Close marks the store closed. Later calls fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func errClosed(key string) error {
	return oops.Code("STORE_CLOSED").With("key", key).Errorf("store is closed")
}
