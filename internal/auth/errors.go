// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors for the expected failure kinds. Returned errors wrap these;
// test with errors.Is or KindOf.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrOperationInProgress = errors.New("operation in progress")
)

// Error codes attached with oops.
const (
	CodeInvalidInput        = "AUTH_INVALID_INPUT"
	CodeDuplicateEmail      = "AUTH_DUPLICATE_EMAIL"
	CodeUserNotFound        = "AUTH_USER_NOT_FOUND"
	CodeInvalidCredential   = "AUTH_INVALID_CREDENTIAL"
	CodeOperationInProgress = "AUTH_BUSY"
	CodeUnexpected          = "AUTH_UNEXPECTED"
)

// Input field names carried in the "field" context of invalid input errors.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"
)

// Kind classifies an error returned by this package.
type Kind int

// Failure kinds.
const (
	KindNone Kind = iota
	KindInvalidInput
	KindDuplicateEmail
	KindUserNotFound
	KindInvalidCredential
	KindOperationInProgress
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidInput:
		return "invalid_input"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindUserNotFound:
		return "user_not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindOperationInProgress:
		return "operation_in_progress"
	default:
		return "unexpected"
	}
}

// KindOf returns the failure kind of err. Any non-nil error that is not one
// of the expected kinds is KindUnexpected.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrInvalidCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrOperationInProgress):
		return KindOperationInProgress
	default:
		return KindUnexpected
	}
}

var fieldMessages = map[string]string{
	FieldName:     "Please enter your name.",
	FieldEmail:    "Please enter your email.",
	FieldPassword: "Please enter a password.",
	FieldRole:     "Please choose Driver or RentalAgency.",
}

// Message returns a human-readable message for err, suitable for display.
// It returns "" for a nil error.
func Message(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidInput:
		if oopsErr, ok := oops.AsOops(err); ok {
			if field, ok := oopsErr.Context()["field"].(string); ok {
				if msg, ok := fieldMessages[field]; ok {
					return msg
				}
			}
		}
		return "Please check the information you entered."
	case KindDuplicateEmail:
		return "This email is already registered."
	case KindUserNotFound:
		return "User not found."
	case KindInvalidCredential:
		return "Incorrect password."
	case KindOperationInProgress:
		return "Another operation is in progress."
	default:
		return "Unexpected error."
	}
}

func invalidInput(field string) error {
	return oops.Code(CodeInvalidInput).With("field", field).Wrap(ErrInvalidInput)
}

func unexpected(operation string, err error) error {
	return oops.Code(CodeUnexpected).With("operation", operation).Wrap(err)
}
