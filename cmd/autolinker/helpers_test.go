// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autolinker/autolinker/internal/store"
)

const testConfig = `store:
  driver: memory
hasher:
  time: 1
  memory_kib: 64
  threads: 1
log:
  level: error
`

// sharedKV keeps one in-memory store alive across command runs.
type sharedKV struct{ store.KV }

func (sharedKV) Close() error { return nil }

type harness struct {
	kv      *store.Memory
	cfgPath string
	deps    *Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o600))

	h := &harness{kv: store.NewMemory(), cfgPath: cfgPath}
	h.deps = &Deps{
		StoreOpener: func(context.Context, store.Options) (store.KV, error) {
			return sharedKV{h.kv}, nil
		},
		IsTerminal: func(int) bool { return false },
	}
	return h
}

// run executes the CLI with args and stdin, returning combined output.
func (h *harness) run(stdin string, args ...string) (string, error) {
	cmd := newRootCmdWithDeps(h.deps)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(t, err, out)
	return out
}
