// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/autolinker/autolinker/internal/store"
)

// Session is the public view of the signed-in user. It never carries
// credential material.
type Session struct {
	ID    ulid.ULID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// Matches reports whether s is the public view of u.
func (s *Session) Matches(u User) bool {
	return s != nil && *s == *u.Session()
}

// SessionManager holds the current session and persists it.
//
// The record is JSON null while nobody is signed in.
type SessionManager struct {
	mu      sync.RWMutex
	kv      store.KV
	key     string
	current *Session
}

// LoadSessionManager reads the session record stored under key. A missing
// record means no session.
func LoadSessionManager(ctx context.Context, kv store.KV, key string) (*SessionManager, error) {
	if kv == nil {
		return nil, oops.Errorf("store is required")
	}

	m := &SessionManager{kv: kv, key: key}

	raw, err := kv.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, oops.Code("SESSION_READ_FAILED").With("key", key).Wrap(err)
	default:
		if err := json.Unmarshal(raw, &m.current); err != nil {
			return nil, oops.Code("SESSION_DECODE_FAILED").With("key", key).Wrap(err)
		}
	}
	return m, nil
}

// Get returns a copy of the current session, or nil.
func (m *SessionManager) Get() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Set persists s as the current session; nil clears it. The in-memory
// session only changes once the write succeeds.
func (m *SessionManager) Set(ctx context.Context, s *Session) error {
	var next *Session
	if s != nil {
		cp := *s
		next = &cp
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Set(ctx, m.key, raw); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("key", m.key).Wrap(err)
	}
	m.current = next
	return nil
}
