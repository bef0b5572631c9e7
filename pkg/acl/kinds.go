// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Package acl is the access-control enforcer: it projects the Policy,
// PolicyAttachment, and RoleAttachment resource kinds into an
// in-memory principal/role/permission model and evaluates
// (subject, object, action) decisions against it with glob matching.
package acl

import "github.com/latticectl/core/pkg/api"

var (
	_ api.Resource = (*Policy)(nil)
	_ api.Resource = (*PolicyAttachment)(nil)
	_ api.Resource = (*RoleAttachment)(nil)
)

// Group is the API group every ACL resource kind is registered under.
const Group = "acl"

// RootUser is the well-known principal that is unconditionally
// granted every permission, short-circuiting evaluation.
const RootUser = "root"

// Rule grants a set of actions on a set of resource patterns. Both
// resource and action entries may be the literal "*".
type Rule struct {
	Resources []api.GroupVersionKindName `json:"resources"`
	Actions   []string                   `json:"actions"`
}

// Policy is a named bundle of Rules, attached to subjects via
// PolicyAttachment.
type Policy struct {
	TypeMeta api.TypeMeta `json:"typeMeta"`
	Metadata api.Metadata `json:"metadata"`
	Rules    []Rule       `json:"rules"`
}

// GetTypeMeta implements api.Resource.
func (p Policy) GetTypeMeta() api.TypeMeta { return p.TypeMeta }

// GetMetadata implements api.Resource.
func (p Policy) GetMetadata() api.Metadata { return p.Metadata }

// SetMetadata implements api.Resource.
func (p *Policy) SetMetadata(md api.Metadata) { p.Metadata = md }

// PolicyAttachment binds a Policy to a set of subjects. Each subject's
// Kind is "User" or "Role" (case-insensitive); any other kind is
// invalid. Writes do not check subject kinds, so an invalid one is
// stored as given and skipped with a logged warning during a model
// reload.
type PolicyAttachment struct {
	TypeMeta  api.TypeMeta       `json:"typeMeta"`
	Metadata  api.Metadata       `json:"metadata"`
	PolicyRef api.NamedRef       `json:"policyRef"`
	Subjects  []api.KindNamedRef `json:"subjects"`
}

// GetTypeMeta implements api.Resource.
func (a PolicyAttachment) GetTypeMeta() api.TypeMeta { return a.TypeMeta }

// GetMetadata implements api.Resource.
func (a PolicyAttachment) GetMetadata() api.Metadata { return a.Metadata }

// SetMetadata implements api.Resource.
func (a *PolicyAttachment) SetMetadata(md api.Metadata) { a.Metadata = md }

// RoleAttachment grants every permission a Role carries to a single
// user.
type RoleAttachment struct {
	TypeMeta api.TypeMeta `json:"typeMeta"`
	Metadata api.Metadata `json:"metadata"`
	RoleRef  api.NamedRef `json:"roleRef"`
	UserRef  api.NamedRef `json:"userRef"`
}

// GetTypeMeta implements api.Resource.
func (a RoleAttachment) GetTypeMeta() api.TypeMeta { return a.TypeMeta }

// GetMetadata implements api.Resource.
func (a RoleAttachment) GetMetadata() api.Metadata { return a.Metadata }

// SetMetadata implements api.Resource.
func (a *RoleAttachment) SetMetadata(md api.Metadata) { a.Metadata = md }
