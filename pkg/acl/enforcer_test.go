// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticectl/core/pkg/api"
)

func widgetRule(name, action string) Rule {
	return Rule{
		Resources: []api.GroupVersionKindName{api.NewGroupVersionKindName("acl", "v1", "widget", name)},
		Actions:   []string{action},
	}
}

func TestEnforcer_GrantsDirectUserPermission(t *testing.T) {
	t.Parallel()

	policy := Policy{
		Metadata: api.NewMetadata("read-widgets", time.Now()),
		Rules:    []Rule{widgetRule("*", "read")},
	}
	attachment := PolicyAttachment{
		Metadata:  api.NewMetadata("alice-reads-widgets", time.Now()),
		PolicyRef: api.NewNamedRef("read-widgets"),
		Subjects:  []api.KindNamedRef{api.NewKindNamedRef("user", "alice")},
	}

	e := NewEnforcer()
	e.LoadModelFromResources([]Policy{policy}, []PolicyAttachment{attachment}, nil)

	subject := SubjectKey("user", "alice")
	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()

	assert.True(t, e.Check(subject, object, "read"))
	assert.False(t, e.Check(subject, object, "write"))
	assert.False(t, e.Check(SubjectKey("user", "bob"), object, "read"))
}

func TestEnforcer_GrantsPermissionViaRole(t *testing.T) {
	t.Parallel()

	policy := Policy{
		Metadata: api.NewMetadata("manage-widgets", time.Now()),
		Rules:    []Rule{widgetRule("*", "*")},
	}
	attachment := PolicyAttachment{
		Metadata:  api.NewMetadata("editors-manage-widgets", time.Now()),
		PolicyRef: api.NewNamedRef("manage-widgets"),
		Subjects:  []api.KindNamedRef{api.NewKindNamedRef("role", "editor")},
	}
	roleAttachment := RoleAttachment{
		Metadata: api.NewMetadata("carol-is-editor", time.Now()),
		RoleRef:  api.NewNamedRef("editor"),
		UserRef:  api.NewNamedRef("carol"),
	}

	e := NewEnforcer()
	e.LoadModelFromResources([]Policy{policy}, []PolicyAttachment{attachment}, []RoleAttachment{roleAttachment})

	subject := SubjectKey("user", "carol")
	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()

	assert.True(t, e.Check(subject, object, "delete"))
	assert.False(t, e.Check(SubjectKey("user", "dave"), object, "delete"))
}

func TestEnforcer_RootUserAlwaysGranted(t *testing.T) {
	t.Parallel()

	e := NewEnforcer()
	e.LoadModelFromResources(nil, nil, nil)

	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()
	assert.True(t, e.Check(SubjectKey("user", RootUser), object, "anything"))
}

func TestEnforcer_UnknownPolicyReferenceIsSkipped(t *testing.T) {
	t.Parallel()

	attachment := PolicyAttachment{
		Metadata:  api.NewMetadata("dangling", time.Now()),
		PolicyRef: api.NewNamedRef("missing-policy"),
		Subjects:  []api.KindNamedRef{api.NewKindNamedRef("user", "alice")},
	}

	e := NewEnforcer()
	assert.NotPanics(t, func() {
		e.LoadModelFromResources(nil, []PolicyAttachment{attachment}, nil)
	})

	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()
	assert.False(t, e.Check(SubjectKey("user", "alice"), object, "read"))
}

func TestEnforcer_UnknownSubjectKindIsSkippedNotPanicked(t *testing.T) {
	t.Parallel()

	policy := Policy{
		Metadata: api.NewMetadata("read-widgets", time.Now()),
		Rules:    []Rule{widgetRule("*", "read")},
	}
	attachment := PolicyAttachment{
		Metadata:  api.NewMetadata("bogus", time.Now()),
		PolicyRef: api.NewNamedRef("read-widgets"),
		Subjects:  []api.KindNamedRef{api.NewKindNamedRef("group", "everyone")},
	}

	e := NewEnforcer()
	assert.NotPanics(t, func() {
		e.LoadModelFromResources([]Policy{policy}, []PolicyAttachment{attachment}, nil)
	})
}

func TestEnforcer_UnknownRoleReferenceStillCreatesPrincipal(t *testing.T) {
	t.Parallel()

	roleAttachment := RoleAttachment{
		Metadata: api.NewMetadata("erin-is-ghost", time.Now()),
		RoleRef:  api.NewNamedRef("ghost-role"),
		UserRef:  api.NewNamedRef("erin"),
	}

	e := NewEnforcer()
	assert.NotPanics(t, func() {
		e.LoadModelFromResources(nil, nil, []RoleAttachment{roleAttachment})
	})

	key := SubjectKey("user", "erin")
	principal, ok := e.model.principals[key]
	require.True(t, ok, "a role attachment with an unresolvable role must still find-or-create its principal")
	require.Len(t, principal.Roles, 1)
	assert.Empty(t, principal.Roles[0].Permissions, "the unresolvable role is synthesized empty, granting nothing")

	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()
	assert.False(t, e.Check(key, object, "read"))
}

func TestEnforcer_MissingPrincipalIsNotGranted(t *testing.T) {
	t.Parallel()

	e := NewEnforcer()
	e.LoadModelFromResources(nil, nil, nil)

	object := api.NewGroupVersionKindName("acl", "v1", "widget", "foo").String()
	assert.False(t, e.Check(SubjectKey("user", "nobody"), object, "read"))
}
