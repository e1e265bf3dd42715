// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the closed classification attached to a User at registration.
type Role string

// Roles.
const (
	RoleDriver       Role = "Driver"
	RoleRentalAgency Role = "RentalAgency"
)

// Roles lists every valid Role.
func Roles() []Role {
	return []Role{RoleDriver, RoleRentalAgency}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleDriver || r == RoleRentalAgency
}

// ParseRole accepts a role name case-insensitively, with or without a
// separator between words ("rental-agency", "rental_agency", "RentalAgency").
func ParseRole(s string) (Role, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "driver":
		return RoleDriver, nil
	case "rentalagency":
		return RoleRentalAgency, nil
	default:
		return "", oops.Code(CodeInvalidInput).
			With("field", FieldRole).
			With("role", s).
			Wrap(ErrInvalidInput)
	}
}

// User is a registered identity. Users are created once and never changed.
type User struct {
	ID             ulid.ULID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	CredentialHash string    `json:"credentialHash"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session returns the credential-free view of u.
func (u User) Session() *Session {
	return &Session{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
