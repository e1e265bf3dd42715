// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/autolinker/autolinker/internal/auth"
	"github.com/autolinker/autolinker/internal/observability"
)

// shellLexer splits a line into bare words and double-quoted strings.
var shellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// shellLine is one command typed into the shell.
type shellLine struct {
	Register *registerLine `parser:"  @@"`
	Login    *loginLine    `parser:"| @@"`
	Users    *usersLine    `parser:"| @@"`
	Command  string        `parser:"| @('logout' | 'whoami' | 'help' | 'quit' | 'exit')"`
}

// registerLine: register <name> <email> <role> [password]
type registerLine struct {
	Name     string `parser:"'register' @(Word | String)"`
	Email    string `parser:"@(Word | String)"`
	Role     string `parser:"@(Word | String)"`
	Password string `parser:"@(Word | String)?"`
}

// loginLine: login <email> [password]
type loginLine struct {
	Email    string `parser:"'login' @(Word | String)"`
	Password string `parser:"@(Word | String)?"`
}

// usersLine: users [glob]
type usersLine struct {
	Keyword string `parser:"@'users'"`
	Match   string `parser:"@(Word | String)?"`
}

var shellParser = participle.MustBuild[shellLine](
	participle.Lexer(shellLexer),
	participle.Unquote("String"),
	participle.CaseInsensitive("Word"),
)

// parseShellLine parses one shell line. Blank lines yield nil.
func parseShellLine(line string) (*shellLine, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil //nolint:nilnil // blank line is not a command
	}
	parsed, err := shellParser.ParseString("", line)
	if err != nil {
		return nil, oops.Code("SHELL_SYNTAX").With("line", line).Wrap(err)
	}
	return parsed, nil
}

const shellHelp = `Commands:
  register <name> <email> <role> [password]   create an account and sign in
  login <email> [password]                    sign in
  logout                                      sign out
  whoami                                      show the signed-in account
  users [glob]                                list accounts, optionally by email
  help                                        show this help
  quit, exit                                  leave the shell
Quote values containing spaces: register "Ann Lee" ann@example.com Driver`

func newShellCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive shell that keeps the store open between commands.
With --metrics-addr, Prometheus metrics and health probes are served while
the shell runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runShell(cmd)
		},
	}

	cmd.Flags().String("metrics-addr", "", "serve /metrics and /healthz on this address")

	return cmd
}

func (c *cli) runShell(cmd *cobra.Command) error {
	ctx := cmd.Context()

	var (
		opts     []auth.ServiceOption
		srv      ObservabilityServer
		counters *observability.Metrics
		ready    atomic.Bool
	)

	if addr := c.cfg.Metrics.Addr; addr != "" {
		srv = c.deps.ObservabilityServerFactory(addr, ready.Load)
		opts = append(opts, auth.WithMetrics(auth.NewMetrics(srv.Registry())))
		counters = srv.Metrics()

		errCh, err := srv.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", addr).Wrap(err)
		}
		go logServerErrors(c.logger, errCh)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				c.logger.Warn("error stopping observability server", "error", err)
			}
		}()
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Metrics on http://%s/metrics\n", srv.Addr())
	}

	a, err := c.openApp(ctx, opts...)
	if err != nil {
		return c.report("open", err)
	}
	defer a.Close()
	if srv != nil {
		if err := observability.RegisterBusyGauge(srv.Registry(), a.service.Busy); err != nil {
			return c.report("metrics", err)
		}
	}
	ready.Store(true)

	in := bufio.NewReader(cmd.InOrStdin())
	sh := &shell{
		cli:      c,
		app:      a,
		in:       in,
		out:      cmd.OutOrStdout(),
		prompt:   c.newPrompter(cmd, in),
		counters: counters,
	}
	return sh.run(ctx)
}

func logServerErrors(logger *slog.Logger, errCh <-chan error) {
	for err := range errCh {
		logger.Error("observability server error", "error", err)
	}
}

// shell reads commands line by line until quit or end of input.
type shell struct {
	cli      *cli
	app      *app
	in       *bufio.Reader
	out      io.Writer
	prompt   *prompter
	counters *observability.Metrics
}

func (s *shell) run(ctx context.Context) error {
	s.printf("AutoLinker shell. Type 'help' for commands.\n")
	s.reportSession()

	for {
		s.printf("> ")
		line, err := readLine(s.in)
		if errors.Is(err, io.EOF) {
			s.printf("\n")
			return nil
		}
		if err != nil {
			return oops.Code("SHELL_READ_FAILED").Wrap(err)
		}

		if done := s.exec(ctx, line); done {
			return nil
		}
	}
}

// exec runs one line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	parsed, err := parseShellLine(line)
	if err != nil {
		s.record("unknown", observability.StatusInvalid)
		s.printf("Could not understand %q. Type 'help' for commands.\n", strings.TrimSpace(line))
		return false
	}
	if parsed == nil {
		return false
	}

	switch {
	case parsed.Register != nil:
		s.register(ctx, parsed.Register)
	case parsed.Login != nil:
		s.login(ctx, parsed.Login)
	case parsed.Users != nil:
		s.users(parsed.Users.Match)
	default:
		return s.simple(ctx, strings.ToLower(parsed.Command))
	}
	return false
}

func (s *shell) register(ctx context.Context, l *registerLine) {
	role, err := auth.ParseRole(l.Role)
	if err != nil {
		s.fail("register", err)
		return
	}
	secret, err := s.prompt.Password(l.Password)
	if err != nil {
		s.fail("register", s.cli.report("password prompt", err))
		return
	}
	sess, err := s.app.service.Register(ctx, l.Name, l.Email, secret, role)
	if err != nil {
		s.fail("register", err)
		return
	}
	s.record("register", observability.StatusSuccess)
	printSignedIn(s.out, sess)
	s.reportSession()
}

func (s *shell) login(ctx context.Context, l *loginLine) {
	secret, err := s.prompt.Password(l.Password)
	if err != nil {
		s.fail("login", s.cli.report("password prompt", err))
		return
	}
	sess, err := s.app.service.Login(ctx, l.Email, secret)
	if err != nil {
		s.fail("login", err)
		return
	}
	s.record("login", observability.StatusSuccess)
	printSignedIn(s.out, sess)
	s.reportSession()
}

func (s *shell) users(match string) {
	if err := listUsers(s.out, s.app.users, match); err != nil {
		s.record("users", observability.StatusInvalid)
		s.printf("Invalid pattern %q.\n", match)
		return
	}
	s.record("users", observability.StatusSuccess)
}

func (s *shell) simple(ctx context.Context, command string) bool {
	switch command {
	case "logout":
		if err := s.app.service.Logout(ctx); err != nil {
			s.fail("logout", err)
			return false
		}
		s.printf("Signed out.\n")
		s.reportSession()
	case "whoami":
		_ = printSession(s.out, s.app.service.CurrentSession(), false) //nolint:errcheck // text output cannot fail
	case "help":
		s.printf("%s\n", shellHelp)
	case "quit", "exit":
		return true
	}
	s.record(command, observability.StatusSuccess)
	return false
}

// fail prints the display message for err.
func (s *shell) fail(command string, err error) {
	status := observability.StatusInvalid
	if auth.KindOf(err) == auth.KindUnexpected {
		status = observability.StatusError
	}
	s.record(command, status)
	s.printf("%s\n", s.cli.present(err).Error())
}

func (s *shell) record(command, status string) {
	if s.counters != nil {
		s.counters.RecordCommand(command, status)
	}
}

func (s *shell) reportSession() {
	if s.counters != nil {
		s.counters.SetSessionActive(s.app.service.CurrentSession() != nil)
	}
}

func (s *shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
