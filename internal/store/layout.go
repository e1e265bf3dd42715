// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// LayoutVersion is the version of the record layout this build writes.
const LayoutVersion = "1.0.0"

// EnsureLayout checks the layout marker stored under key against current.
//
// A missing marker is written. A marker with the same major version is
// accepted and raised to current if it is older. Any other major version is
// refused so an older build never rewrites records it does not understand.
func EnsureLayout(ctx context.Context, kv KV, key, current string) error {
	want, err := semver.NewVersion(current)
	if err != nil {
		return oops.Code("STORE_LAYOUT_INVALID").With("version", current).Wrap(err)
	}

	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return writeLayout(ctx, kv, key, want)
	}
	if err != nil {
		return oops.Code("STORE_LAYOUT_READ_FAILED").With("key", key).Wrap(err)
	}

	stored, err := semver.NewVersion(string(raw))
	if err != nil {
		return oops.Code("STORE_LAYOUT_INVALID").
			With("key", key).
			With("version", string(raw)).
			Wrap(err)
	}

	compatible, err := semver.NewConstraint(fmt.Sprintf("^%d", want.Major()))
	if err != nil {
		return oops.Code("STORE_LAYOUT_INVALID").With("version", current).Wrap(err)
	}
	if !compatible.Check(stored) {
		return oops.Code("STORE_LAYOUT_INCOMPATIBLE").
			With("stored", stored.String()).
			With("supported", compatible.String()).
			Errorf("store layout %s is not supported by this build", stored)
	}

	if stored.LessThan(want) {
		return writeLayout(ctx, kv, key, want)
	}
	return nil
}

func writeLayout(ctx context.Context, kv KV, key string, v *semver.Version) error {
	if err := kv.Set(ctx, key, []byte(v.String())); err != nil {
		return oops.Code("STORE_LAYOUT_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
