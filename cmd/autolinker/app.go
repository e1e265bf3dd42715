// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/autolinker/autolinker/internal/auth"
	"github.com/autolinker/autolinker/internal/store"
	"github.com/autolinker/autolinker/internal/xdg"
	"github.com/autolinker/autolinker/pkg/errutil"
)

// app is the composed identity core for one process.
type app struct {
	kv      store.KV
	users   *auth.Registry
	service *auth.Service
	logger  *slog.Logger
}

// openApp opens the store, loads the registry and session, and reconciles
// the persisted session with the registry.
func (c *cli) openApp(ctx context.Context, opts ...auth.ServiceOption) (*app, error) {
	storeOpts := c.cfg.StoreOptions()
	if storeOpts.Driver == store.DriverSQLite && storeOpts.Path != "" {
		if err := xdg.EnsureDir(filepath.Dir(storeOpts.Path)); err != nil {
			return nil, err
		}
	}

	kv, err := c.deps.StoreOpener(ctx, storeOpts)
	if err != nil {
		return nil, err
	}

	a, err := c.compose(ctx, kv, opts)
	if err != nil {
		if closeErr := kv.Close(); closeErr != nil {
			errutil.LogError(c.logger, "failed to close store", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (c *cli) compose(ctx context.Context, kv store.KV, opts []auth.ServiceOption) (*app, error) {
	keys := c.cfg.Keys()

	if err := store.EnsureLayout(ctx, kv, keys.Layout, store.LayoutVersion); err != nil {
		return nil, err
	}

	users, err := auth.LoadRegistry(ctx, kv, keys.Users, auth.NewArgon2idHasherWithParams(c.cfg.HasherParams()))
	if err != nil {
		return nil, err
	}

	sessions, err := auth.LoadSessionManager(ctx, kv, keys.Session)
	if err != nil {
		return nil, err
	}

	service, err := auth.NewService(users, sessions, append([]auth.ServiceOption{auth.WithLogger(c.logger)}, opts...)...)
	if err != nil {
		return nil, oops.Code("APP_INIT_FAILED").With("operation", "create auth service").Wrap(err)
	}

	if err := service.Restore(ctx); err != nil {
		return nil, err
	}

	return &app{kv: kv, users: users, service: service, logger: c.logger}, nil
}

// Close releases the store.
func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		errutil.LogError(a.logger, "failed to close store", err)
	}
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func (c *cli) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := c.openApp(ctx)
	if err != nil {
		return c.report("open", err)
	}
	defer a.Close()
	return fn(a)
}

// displayError carries the message shown to people alongside the
// underlying error.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }

func (e *displayError) Unwrap() error { return e.err }

// present turns an error into a displayError. The auth service has already
// logged unexpected failures of its own operations.
func (c *cli) present(err error) error {
	if err == nil {
		return nil
	}
	return &displayError{msg: auth.Message(err), err: err}
}

// report logs err in full and then presents it. Use it for failures that did
// not pass through the auth service.
func (c *cli) report(operation string, err error) error {
	if auth.KindOf(err) == auth.KindUnexpected {
		errutil.LogError(c.logger, operation+" failed", err, "kind", auth.KindOf(err).String())
	}
	return c.present(err)
}
