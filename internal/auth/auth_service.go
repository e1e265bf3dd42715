// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/autolinker/autolinker/pkg/errutil"
)

const tracerName = "github.com/autolinker/autolinker/internal/auth"

// UserRegistry is the user collection the Service reads and extends.
// *Registry implements it.
type UserRegistry interface {
	Create(ctx context.Context, name, email string, role Role, secret string) (User, error)
	Authenticate(email, secret string) (User, error)
	FindByID(id ulid.ULID) (User, bool)
	Remove(ctx context.Context, id ulid.ULID) error
	Len() int
}

// SessionStore holds the current session. *SessionManager implements it.
type SessionStore interface {
	Get() *Session
	Set(ctx context.Context, s *Session) error
}

// Service provides register, login and logout over a UserRegistry and a
// SessionStore.
//
// Register and Login are not re-entrant: while one runs, Busy reports true
// and a second call fails with ErrOperationInProgress.
type Service struct {
	users    UserRegistry
	sessions SessionStore
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	busy     atomic.Bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithLogger sets the logger for audit events and best-effort failures.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			return oops.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics records operation counts and durations in m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) error {
		s.metrics = m
		return nil
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) error {
		if tracer == nil {
			return oops.Errorf("tracer cannot be nil")
		}
		s.tracer = tracer
		return nil
	}
}

// NewService creates a Service.
func NewService(users UserRegistry, sessions SessionStore, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user registry is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}

	s := &Service{
		users:    users,
		sessions: sessions,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.metrics.setUsers(users.Len())
	return s, nil
}

// Busy reports whether a Register or Login is in progress.
func (s *Service) Busy() bool {
	return s.busy.Load()
}

// CurrentSession returns the current session, or nil when signed out.
func (s *Service) CurrentSession() *Session {
	return s.sessions.Get()
}

// Register creates a user and signs it in.
//
// The name is trimmed and must not be empty. Fails with ErrInvalidInput for
// missing fields or an unknown role, and ErrDuplicateEmail when the
// normalized email is taken. A failed Register creates no user.
func (s *Service) Register(ctx context.Context, name, email, secret string, role Role) (sess *Session, err error) {
	ctx, done := s.begin(ctx, OpRegister, attribute.String("user.role", string(role)))
	defer func() { done(err) }()

	if !s.busy.CompareAndSwap(false, true) {
		return nil, oops.Code(CodeOperationInProgress).With("operation", OpRegister).Wrap(ErrOperationInProgress)
	}
	defer s.busy.Store(false)

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, invalidInput(FieldName)
	case NormalizeEmail(email) == "":
		return nil, invalidInput(FieldEmail)
	case secret == "":
		return nil, invalidInput(FieldPassword)
	case !role.Valid():
		return nil, invalidInput(FieldRole)
	}

	u, err := s.users.Create(ctx, name, email, role, secret)
	if err != nil {
		if KindOf(err) == KindDuplicateEmail {
			return nil, err
		}
		return nil, unexpected("create user", err)
	}

	sess = u.Session()
	if err := s.sessions.Set(ctx, sess); err != nil {
		// The user must not outlive a failed Register.
		if rbErr := s.users.Remove(ctx, u.ID); rbErr != nil {
			return nil, oops.Code(CodeUnexpected).
				With("operation", "set session").
				With("rollback", "failed").
				Wrap(errors.Join(err, rbErr))
		}
		return nil, unexpected("set session", err)
	}

	s.metrics.setUsers(s.users.Len())
	s.logger.InfoContext(ctx, "user registered",
		"user_id", u.ID.String(),
		"email", u.Email,
		"role", string(u.Role),
	)
	return sess, nil
}

// Login verifies secret for the user registered under email and makes it
// the current session, replacing any previous one.
//
// Fails with ErrUserNotFound or ErrInvalidCredential; the current session is
// left unchanged on failure.
func (s *Service) Login(ctx context.Context, email, secret string) (sess *Session, err error) {
	ctx, done := s.begin(ctx, OpLogin)
	defer func() { done(err) }()

	if !s.busy.CompareAndSwap(false, true) {
		return nil, oops.Code(CodeOperationInProgress).With("operation", OpLogin).Wrap(ErrOperationInProgress)
	}
	defer s.busy.Store(false)

	u, err := s.users.Authenticate(email, secret)
	if err != nil {
		switch KindOf(err) {
		case KindUserNotFound, KindInvalidCredential:
			s.logger.InfoContext(ctx, "login rejected",
				"email", NormalizeEmail(email),
				"reason", KindOf(err).String(),
			)
			return nil, err
		default:
			return nil, unexpected("authenticate", err)
		}
	}

	sess = u.Session()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, unexpected("set session", err)
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID.String())
	return sess, nil
}

// Logout clears the current session. It only fails when the store cannot be
// written.
func (s *Service) Logout(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, OpLogout)
	defer func() { done(err) }()

	prev := s.sessions.Get()
	if err := s.sessions.Set(ctx, nil); err != nil {
		return unexpected("clear session", err)
	}
	if prev != nil {
		s.logger.InfoContext(ctx, "user logged out", "user_id", prev.ID.String())
	}
	return nil
}

// Restore checks the persisted session against the registry. A session
// whose user no longer exists, or whose fields no longer match that user,
// is cleared. Call it once after start-up; CurrentSession never revalidates.
func (s *Service) Restore(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, OpRestore)
	defer func() { done(err) }()

	sess := s.sessions.Get()
	if sess == nil {
		return nil
	}

	u, ok := s.users.FindByID(sess.ID)
	if ok && sess.Matches(u) {
		return nil
	}

	s.logger.WarnContext(ctx, "clearing stale session",
		"user_id", sess.ID.String(),
		"user_exists", ok,
	)
	if err := s.sessions.Set(ctx, nil); err != nil {
		return unexpected("clear stale session", err)
	}
	return nil
}

// begin starts the span for operation and returns the func that ends it.
func (s *Service) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "auth."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		defer span.End()
		s.metrics.observe(operation, err, time.Since(start))
		if err == nil {
			return
		}
		span.SetAttributes(attribute.String("auth.failure", KindOf(err).String()))
		if KindOf(err) == KindUnexpected {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			errutil.LogErrorContext(ctx, s.logger, operation+" failed", err, "kind", KindOf(err).String())
		}
	}
}
