// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Package oauth is the OAuth2 protocol core: authorization-code+PKCE,
// refresh-token rotation, introspection, revocation, and Personal
// Access Tokens, built on top of the resource manager in pkg/runtime
// for persistence.
package oauth

import (
	"encoding/json"
	"sort"
	"strings"
)

// Scope is an unordered set of OAuth scope strings. The literal "*"
// entry is a full scope: it is considered a superset of every other
// scope, the way a root client's allowed_scopes grants anything a
// client or token requests.
type Scope map[string]struct{}

// NewScope builds a Scope from individual scope strings.
func NewScope(values ...string) Scope {
	s := make(Scope, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// ParseScope splits a space-delimited scope string, the wire format
// used by both the token and introspection endpoints.
func ParseScope(s string) Scope {
	return NewScope(strings.Fields(s)...)
}

// String renders the scope back to its space-delimited wire format,
// sorted for deterministic output.
func (s Scope) String() string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return strings.Join(values, " ")
}

// IsFullScope reports whether s is the literal "*" scope.
func (s Scope) IsFullScope() bool {
	_, ok := s["*"]
	return ok
}

// IsSuperset reports whether s grants everything other requests: a
// full scope is always a superset, otherwise every entry of other
// must be present in s.
func (s Scope) IsSuperset(other Scope) bool {
	if s.IsFullScope() {
		return true
	}
	for v := range other {
		if _, ok := s[v]; !ok {
			return false
		}
	}
	return true
}

// Intersect returns the scopes common to both s and other. A full
// scope intersected with anything yields the other scope unchanged,
// mirroring a root client's request being granted as-is.
func (s Scope) Intersect(other Scope) Scope {
	if s.IsFullScope() {
		return other
	}
	if other.IsFullScope() {
		return s
	}
	out := make(Scope)
	for v := range s {
		if _, ok := other[v]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

// MarshalJSON encodes the scope as its space-delimited wire string.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a space-delimited scope string.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseScope(str)
	return nil
}
