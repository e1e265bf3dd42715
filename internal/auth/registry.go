// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/autolinker/autolinker/internal/store"
)

// Registry is the persisted collection of registered users.
//
// The collection is read from the store once by LoadRegistry. Create writes
// the whole collection back before changing the in-memory copy, so a failed
// write leaves the Registry as it was.
type Registry struct {
	mu      sync.RWMutex
	kv      store.KV
	key     string
	hasher  PasswordHasher
	users   []User
	byEmail map[string]int
	byID    map[ulid.ULID]int

	newID func() ulid.ULID
	now   func() time.Time
}

// LoadRegistry reads the users record stored under key. A missing record is
// an empty collection.
func LoadRegistry(ctx context.Context, kv store.KV, key string, hasher PasswordHasher) (*Registry, error) {
	if kv == nil {
		return nil, oops.Errorf("store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	var users []User
	raw, err := kv.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, oops.Code("USERS_READ_FAILED").With("key", key).Wrap(err)
	default:
		if err := json.Unmarshal(raw, &users); err != nil {
			return nil, oops.Code("USERS_DECODE_FAILED").With("key", key).Wrap(err)
		}
	}

	r := &Registry{
		kv:     kv,
		key:    key,
		hasher: hasher,
		newID:  NewID,
		now:    time.Now,
	}
	r.index(users)
	return r, nil
}

func (r *Registry) index(users []User) {
	r.users = users
	r.byEmail = make(map[string]int, len(users))
	r.byID = make(map[ulid.ULID]int, len(users))
	for i, u := range users {
		r.byEmail[u.Email] = i
		r.byID[u.ID] = i
	}
}

// FindByEmail returns the user registered under the normalized email.
func (r *Registry) FindByEmail(email string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, false
	}
	return r.users[i], true
}

// FindByID returns the user with the given id.
func (r *Registry) FindByID(id ulid.ULID) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	return r.users[i], true
}

// Create registers a new user and persists the collection.
// It fails with ErrDuplicateEmail if the normalized email is taken.
func (r *Registry) Create(ctx context.Context, name, email string, role Role, secret string) (User, error) {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return User{}, oops.Code(CodeDuplicateEmail).With("email", email).Wrap(ErrDuplicateEmail)
	}

	hash, err := r.hasher.Hash(secret)
	if err != nil {
		return User{}, oops.Code("USER_HASH_FAILED").With("email", email).Wrap(err)
	}

	u := User{
		ID:             r.newID(),
		Name:           name,
		Email:          email,
		Role:           role,
		CredentialHash: hash,
		CreatedAt:      r.now().UTC(),
	}

	next := append(slices.Clip(r.users), u)
	raw, err := json.Marshal(next)
	if err != nil {
		return User{}, oops.Code("USERS_ENCODE_FAILED").Wrap(err)
	}
	if err := r.kv.Set(ctx, r.key, raw); err != nil {
		return User{}, oops.Code("USERS_WRITE_FAILED").With("key", r.key).Wrap(err)
	}

	r.users = next
	r.byEmail[u.Email] = len(next) - 1
	r.byID[u.ID] = len(next) - 1
	return u, nil
}

// Remove deletes the user with the given id and persists the collection.
// It exists to undo a Create whose follow-up step failed; users are
// otherwise never removed. Removing an unknown id is a no-op.
func (r *Registry) Remove(ctx context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok {
		return nil
	}

	next := slices.Delete(slices.Clone(r.users), i, i+1)
	raw, err := json.Marshal(next)
	if err != nil {
		return oops.Code("USERS_ENCODE_FAILED").Wrap(err)
	}
	if err := r.kv.Set(ctx, r.key, raw); err != nil {
		return oops.Code("USERS_WRITE_FAILED").With("key", r.key).With("user_id", id.String()).Wrap(err)
	}

	r.index(next)
	return nil
}

// Authenticate checks secret against the credential of the user registered
// under email. It fails with ErrUserNotFound or ErrInvalidCredential.
func (r *Registry) Authenticate(email, secret string) (User, error) {
	email = NormalizeEmail(email)
	u, ok := r.FindByEmail(email)
	if !ok {
		return User{}, oops.Code(CodeUserNotFound).With("email", email).Wrap(ErrUserNotFound)
	}

	match, err := r.hasher.Verify(secret, u.CredentialHash)
	if err != nil {
		return User{}, oops.Code("USER_VERIFY_FAILED").With("email", email).Wrap(err)
	}
	if !match {
		return User{}, oops.Code(CodeInvalidCredential).With("email", email).Wrap(ErrInvalidCredential)
	}
	return u, nil
}

// List returns users in registration order. A non-empty pattern keeps only
// users whose email matches the glob, for example "*@rental.example".
func (r *Registry) List(pattern string) ([]User, error) {
	var g glob.Glob
	if pattern = strings.TrimSpace(pattern); pattern != "" {
		var err error
		g, err = glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, oops.Code("USERS_PATTERN_INVALID").With("pattern", pattern).Wrap(err)
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		if g == nil || g.Match(u.Email) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
