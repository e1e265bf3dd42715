// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/autolinker/autolinker/internal/auth"
)

// MockUserRegistry is a mock of auth.UserRegistry.
type MockUserRegistry struct {
	mock.Mock
}

// NewMockUserRegistry creates a MockUserRegistry whose expectations are
// asserted when the test ends.
func NewMockUserRegistry(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRegistry {
	m := &MockUserRegistry{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockUserRegistry) Create(ctx context.Context, name, email string, role auth.Role, secret string) (auth.User, error) {
	args := m.Called(ctx, name, email, role, secret)
	return args.Get(0).(auth.User), args.Error(1)
}

// Authenticate provides a mock function.
func (m *MockUserRegistry) Authenticate(email, secret string) (auth.User, error) {
	args := m.Called(email, secret)
	return args.Get(0).(auth.User), args.Error(1)
}

// FindByID provides a mock function.
func (m *MockUserRegistry) FindByID(id ulid.ULID) (auth.User, bool) {
	args := m.Called(id)
	return args.Get(0).(auth.User), args.Bool(1)
}

// Remove provides a mock function.
func (m *MockUserRegistry) Remove(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Len provides a mock function.
func (m *MockUserRegistry) Len() int {
	args := m.Called()
	return args.Int(0)
}
