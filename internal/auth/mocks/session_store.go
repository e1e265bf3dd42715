// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/autolinker/autolinker/internal/auth"
)

// MockSessionStore is a mock of auth.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a MockSessionStore whose expectations are
// asserted when the test ends.
func NewMockSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Get provides a mock function.
func (m *MockSessionStore) Get() *auth.Session {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*auth.Session)
}

// Set provides a mock function.
func (m *MockSessionStore) Set(ctx context.Context, s *auth.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
