// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

// Package mocks provides testify mocks for the auth interfaces.
package mocks
