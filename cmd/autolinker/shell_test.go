// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autolinker/autolinker/internal/observability"
	"github.com/autolinker/autolinker/pkg/errutil"
)

func TestParseShellLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		check   func(t *testing.T, got *shellLine)
		wantErr bool
	}{
		{
			name:  "blank",
			line:  "   ",
			check: func(t *testing.T, got *shellLine) { assert.Nil(t, got) },
		},
		{
			name: "register with quoted name",
			line: `register "Ann Lee" ann@example.com Driver pw1`,
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Register)
				assert.Equal(t, registerLine{Name: "Ann Lee", Email: "ann@example.com", Role: "Driver", Password: "pw1"}, *got.Register)
			},
		},
		{
			name: "register without password",
			line: "REGISTER Ann ann@example.com RentalAgency",
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Register)
				assert.Equal(t, "Ann", got.Register.Name)
				assert.Empty(t, got.Register.Password)
			},
		},
		{
			name: "login",
			line: "login ann@example.com pw1",
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Login)
				assert.Equal(t, "ann@example.com", got.Login.Email)
				assert.Equal(t, "pw1", got.Login.Password)
			},
		},
		{
			name: "quoted password with escaped quote",
			line: `login ann@example.com "p \"w\" 1"`,
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Login)
				assert.Equal(t, `p "w" 1`, got.Login.Password)
			},
		},
		{
			name: "users without pattern",
			line: "users",
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Users)
				assert.Empty(t, got.Users.Match)
			},
		},
		{
			name: "users with pattern",
			line: "users *@acme.test",
			check: func(t *testing.T, got *shellLine) {
				require.NotNil(t, got.Users)
				assert.Equal(t, "*@acme.test", got.Users.Match)
			},
		},
		{
			name:  "simple command",
			line:  "  Whoami ",
			check: func(t *testing.T, got *shellLine) { assert.Equal(t, "Whoami", got.Command) },
		},
		{name: "unknown command", line: "dance", wantErr: true},
		{name: "status is not a command", line: "status", wantErr: true},
		{name: "missing arguments", line: "register Ann", wantErr: true},
		{name: "trailing arguments", line: "logout now", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseShellLine(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "SHELL_SYNTAX")
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestShell_Session(t *testing.T) {
	h := newHarness(t)

	script := `help
register "Ann Lee" ann@example.com Driver pw1
whoami
register Bo ann@example.com Driver pw2
logout
login ann@example.com wrong
login ann@example.com
pw1
users
dance
quit
whoami
`
	out := h.mustRun(t, script, "shell")

	assert.Contains(t, out, "quit, exit")
	assert.Contains(t, out, "Signed in as Ann Lee <ann@example.com> (Driver).")
	assert.Contains(t, out, "This email is already registered.")
	assert.Contains(t, out, "Signed out.")
	assert.Contains(t, out, "Incorrect password.")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "ID  ")
	assert.Contains(t, out, `Could not understand "dance"`)

	// Input after quit is not executed and the session survives the shell.
	out = h.mustRun(t, "", "whoami")
	assert.Contains(t, out, "Signed in as Ann Lee")
}

func TestShell_EndOfInputExits(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "whoami", "shell")
	assert.Contains(t, out, "Not signed in.")
}

// fakeObservabilityServer records lifecycle calls and exposes real metrics.
type fakeObservabilityServer struct {
	registry *prometheus.Registry
	metrics  *observability.Metrics
	ready    observability.ReadinessChecker
	started  bool
	stopped  bool
}

func (f *fakeObservabilityServer) Start() (<-chan error, error) {
	f.started = true
	ch := make(chan error)
	close(ch)
	return ch, nil
}

func (f *fakeObservabilityServer) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeObservabilityServer) Addr() string                    { return "127.0.0.1:9100" }
func (f *fakeObservabilityServer) Metrics() *observability.Metrics { return f.metrics }
func (f *fakeObservabilityServer) Registry() prometheus.Registerer { return f.registry }

func TestShell_Metrics(t *testing.T) {
	h := newHarness(t)

	var srv *fakeObservabilityServer
	var gotAddr string
	h.deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
		gotAddr = addr
		reg := prometheus.NewRegistry()
		srv = &fakeObservabilityServer{registry: reg, metrics: observability.NewMetrics(reg), ready: ready}
		return srv
	}

	out := h.mustRun(t, "register Ann ann@example.com Driver pw1\nlogin ann@example.com bad\nwhoami\nexit\n",
		"shell", "--metrics-addr", "127.0.0.1:9100")

	require.NotNil(t, srv)
	assert.Equal(t, "127.0.0.1:9100", gotAddr)
	assert.Contains(t, out, "Metrics on http://127.0.0.1:9100/metrics")
	assert.True(t, srv.started)
	assert.True(t, srv.stopped)
	assert.True(t, srv.ready(), "ready once the store is open")

	commands := srv.metrics.CommandsTotal
	assert.InDelta(t, 1, testutil.ToFloat64(commands.WithLabelValues("register", observability.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(commands.WithLabelValues("login", observability.StatusInvalid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(commands.WithLabelValues("whoami", observability.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.SessionActive), 0)

	n, err := testutil.GatherAndCount(srv.registry, "autolinker_auth_operations_total")
	require.NoError(t, err)
	assert.Positive(t, n, "auth metrics registered on the served registry")

	n, err = testutil.GatherAndCount(srv.registry, "autolinker_auth_busy")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "busy gauge registered on the served registry")
	require.NoError(t, testutil.GatherAndCompare(srv.registry, strings.NewReader(`
# HELP autolinker_auth_busy 1 while a register or login is in progress, 0 otherwise
# TYPE autolinker_auth_busy gauge
autolinker_auth_busy 0
`), "autolinker_auth_busy"))
}

func TestShell_NoMetricsServerByDefault(t *testing.T) {
	h := newHarness(t)
	h.deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker) ObservabilityServer {
		t.Fatal("observability server must not be created without an address")
		return nil
	}

	h.mustRun(t, "quit\n", "shell")
}
