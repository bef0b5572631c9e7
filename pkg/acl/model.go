// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Permission grants access to objects matching objectPattern for
// actions matching actionPattern. Patterns are Unix-style globs where
// "*" matches any run of characters, including "/" — an object
// pattern of "acl/v1/*/*" therefore matches every kind and name in
// the acl/v1 group.
type Permission struct {
	object        string
	action        string
	objectPattern glob.Glob
	actionPattern glob.Glob
}

// NewPermission compiles a Permission from its object and action glob
// strings. A malformed glob is treated as matching nothing rather than
// failing the whole model load, since a single bad Policy shouldn't
// take the enforcer down.
func NewPermission(object, action string) Permission {
	p := Permission{object: object, action: action}
	if g, err := glob.Compile(object); err == nil {
		p.objectPattern = g
	}
	if g, err := glob.Compile(action); err == nil {
		p.actionPattern = g
	}
	return p
}

// Matches reports whether this permission grants access to object for
// action.
func (p Permission) Matches(object, action string) bool {
	if p.objectPattern == nil || p.actionPattern == nil {
		return false
	}
	return p.objectPattern.Match(object) && p.actionPattern.Match(action)
}

// String renders the permission the way the original model's Display
// impl did, for log messages.
func (p Permission) String() string {
	return fmt.Sprintf("%s, %s", p.object, p.action)
}

// Role is a named, reusable bundle of Permissions.
type Role struct {
	Name        string
	Permissions []Permission
}

func (r *Role) check(object, action string) bool {
	for _, perm := range r.Permissions {
		if perm.Matches(object, action) {
			return true
		}
	}
	return false
}

// Principal is a single subject (a user or, indirectly, every user
// carrying one of its roles): its own Permissions plus the Roles it
// has been granted.
type Principal struct {
	Name        string
	Roles       []*Role
	Permissions []Permission
}

// check walks the principal's own permissions first, then each of its
// roles in order, returning on the first match — mirroring the
// depth-first Visitor traversal of the original model.
func (p *Principal) check(object, action string) bool {
	for _, perm := range p.Permissions {
		if perm.Matches(object, action) {
			return true
		}
	}
	for _, role := range p.Roles {
		if role.check(object, action) {
			return true
		}
	}
	return false
}

// Model is the fully assembled, immutable access-control graph: every
// known principal keyed by its lowercase "kind:name" identity. A Model
// is built once per reload and swapped in atomically by the Enforcer;
// it is never mutated after construction, so concurrent Check calls
// need no internal locking of their own.
type Model struct {
	principals map[string]*Principal
}

// EmptyModel returns a Model granting nothing.
func EmptyModel() *Model {
	return &Model{principals: make(map[string]*Principal)}
}

// AddPrincipal registers p, keyed by its name as given by the caller
// (callers are expected to pass the "kind:name" composite key).
func (m *Model) AddPrincipal(key string, p *Principal) {
	m.principals[key] = p
}

// Check evaluates whether subject is granted action on object.
// "user:root" is always granted, regardless of model contents.
func (m *Model) Check(subject, object, action string) bool {
	if strings.EqualFold(subject, RootUserKey) {
		return true
	}
	p, ok := m.principals[subject]
	if !ok {
		return false
	}
	return p.check(object, action)
}

// principalKey builds the lowercase "kind:name" composite key used to
// index principals and to serialize subjects for Check.
func principalKey(kind, name string) string {
	return strings.ToLower(kind) + ":" + strings.ToLower(name)
}
