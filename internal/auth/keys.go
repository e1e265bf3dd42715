// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import "strings"

// DefaultNamespace prefixes every record key unless configured otherwise.
const DefaultNamespace = "@autolinker"

// Keys names the store records the core persists.
type Keys struct {
	Users   string
	Session string
	Layout  string
}

// NewKeys returns the record keys under namespace. An empty namespace means
// DefaultNamespace.
func NewKeys(namespace string) Keys {
	ns := strings.TrimSuffix(strings.TrimSpace(namespace), "/")
	if ns == "" {
		ns = DefaultNamespace
	}
	return Keys{
		Users:   ns + "/users",
		Session: ns + "/session",
		Layout:  ns + "/layout",
	}
}
