package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupVersion_StringAndEqual(t *testing.T) {
	t.Parallel()

	gv := NewGroupVersion("ACL", "V1")
	assert.Equal(t, "acl/v1", gv.String())
	assert.True(t, gv.Equal(NewGroupVersion("acl", "v1")))
	assert.False(t, gv.Equal(NewGroupVersion("oauth", "v1")))
}

func TestParseGroupVersion(t *testing.T) {
	t.Parallel()

	gv, err := ParseGroupVersion("acl/v1")
	require.NoError(t, err)
	assert.Equal(t, GroupVersion{Group: "acl", Version: "v1"}, gv)

	_, err = ParseGroupVersion("acl")
	assert.Error(t, err)
}

func TestGroupVersionKind_StringAndEqual(t *testing.T) {
	t.Parallel()

	gvk := NewGroupVersionKind("acl", "v1", "Policy")
	assert.Equal(t, "acl/v1/policy", gvk.String())
	assert.True(t, gvk.Equal(NewGroupVersionKind("ACL", "V1", "POLICY")))
}

func TestParseGroupVersionKind(t *testing.T) {
	t.Parallel()

	gvk, err := ParseGroupVersionKind("acl/v1/policy")
	require.NoError(t, err)
	assert.Equal(t, "policy", gvk.Kind)

	_, err = ParseGroupVersionKind("acl/v1")
	assert.Error(t, err)
}

func TestGroupVersionKindName_StringAndEqual(t *testing.T) {
	t.Parallel()

	gvkn := NewGroupVersionKindName("acl", "v1", "Policy", "Admins")
	assert.Equal(t, "acl/v1/policy/admins", gvkn.String())
	assert.True(t, gvkn.Equal(NewGroupVersionKindName("ACL", "V1", "POLICY", "ADMINS")))
	assert.False(t, gvkn.Equal(NewGroupVersionKindName("acl", "v1", "policy", "other")))
}

func TestParseGroupVersionKindName(t *testing.T) {
	t.Parallel()

	gvkn, err := ParseGroupVersionKindName("acl/v1/policy/admins")
	require.NoError(t, err)
	assert.Equal(t, "admins", gvkn.Name)

	_, err = ParseGroupVersionKindName("acl/v1/policy")
	assert.Error(t, err)
}

func TestGroupVersionKindName_Matches(t *testing.T) {
	t.Parallel()

	target := NewGroupVersionKindName("acl", "v1", "policy", "admins")

	// Exact match.
	assert.True(t, target.Matches(NewGroupVersionKindName("acl", "v1", "policy", "admins")))

	// Wildcard name within the same GVK matches any name.
	assert.True(t, target.Matches(NewGroupVersionKindName("acl", "v1", "policy", "*")))

	// Wildcard name with a different GVK does not match.
	assert.False(t, target.Matches(NewGroupVersionKindName("oauth", "v1", "oauthclient", "*")))

	// Wildcard kind matches any kind within the group/version.
	assert.True(t, target.Matches(NewGroupVersionKindName("acl", "v1", "*", "*")))
}

func TestGroupKindName_StringAndEqual(t *testing.T) {
	t.Parallel()

	gkn := NewGroupKindName("acl", "Policy", "Admins")
	assert.Equal(t, "acl/policy/admins", gkn.String())
	assert.True(t, gkn.Equal(NewGroupKindName("ACL", "POLICY", "ADMINS")))
}

func TestKindNamedRef_StringEqualAndParse(t *testing.T) {
	t.Parallel()

	ref := NewKindNamedRef("User", "Alice")
	assert.Equal(t, "user/alice", ref.String())
	assert.True(t, ref.Equal(NewKindNamedRef("USER", "ALICE")))

	parsed, err := ParseKindNamedRef("role/admin")
	require.NoError(t, err)
	assert.Equal(t, KindNamedRef{Kind: "role", Name: "admin"}, parsed)

	_, err = ParseKindNamedRef("noseparator")
	assert.Error(t, err)
}

func TestNamedRef_StringAndEqual(t *testing.T) {
	t.Parallel()

	ref := NewNamedRef("Admins")
	assert.Equal(t, "admins", ref.String())
	assert.True(t, ref.Equal(NewNamedRef("ADMINS")))
}
