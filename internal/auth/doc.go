// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

// Package auth provides the identity and session core of AutoLinker.
//
// # Domain Types
//
//   - User - a registered identity with a unique normalized email
//   - Session - the credential-free view of the signed-in User
//   - Role - Driver or RentalAgency, carried without further semantics
//
// # Components
//
//   - Argon2idHasher - one-way credential hashing
//   - Registry - the persisted user collection, enforces email uniqueness
//   - SessionManager - the persisted current session
//   - Service - register, login, logout and the current session
//
// Registry and SessionManager load their records once from a store.KV and
// write through on every change. A Service is built once at start-up and
// handed to whichever caller needs it.
//
// Failures carry one of the kinds reported by KindOf. Message maps an error
// to text suitable for showing to the user.
package auth
