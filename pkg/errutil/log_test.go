// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autolinker/autolinker/pkg/errutil"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORE_WRITE_FAILED").
		With("key", "@autolinker/users").
		Errorf("disk full")

	errutil.LogError(logger, "register failed", err, "kind", "unexpected")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "register failed", entry["msg"])
	assert.Equal(t, "STORE_WRITE_FAILED", entry["code"])
	assert.Equal(t, "unexpected", entry["kind"])
	require.IsType(t, map[string]any{}, entry["context"])
	assert.Equal(t, "@autolinker/users", entry["context"].(map[string]any)["key"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "close failed", errors.New("standard error"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "standard error", entry["error"])
	assert.NotContains(t, entry, "code")
}

type ctxKey struct{}

// ctxRecorder remembers the context of the last record it handled.
type ctxRecorder struct {
	slog.Handler
	got context.Context
}

func (h *ctxRecorder) Handle(ctx context.Context, r slog.Record) error {
	h.got = ctx
	return h.Handler.Handle(ctx, r)
}

func TestLogErrorContext_PassesContext(t *testing.T) {
	var buf bytes.Buffer
	h := &ctxRecorder{Handler: slog.NewJSONHandler(&buf, nil)}
	ctx := context.WithValue(context.Background(), ctxKey{}, "span")

	errutil.LogErrorContext(ctx, slog.New(h), "login failed", errors.New("boom"))

	require.NotNil(t, h.got)
	assert.Equal(t, "span", h.got.Value(ctxKey{}))
}

func TestAttrs(t *testing.T) {
	assert.Nil(t, errutil.Attrs(nil))
	assert.Equal(t, []any{"error", "plain"}, errutil.Attrs(errors.New("plain")))

	attrs := errutil.Attrs(oops.Errorf("no code"))
	assert.Equal(t, []any{"error", "no code"}, attrs)
}
