// Package api defines the resource identity and envelope types shared
// by every kind the resource manager, ACL enforcer, and OAuth2 core
// persist: GroupVersion/GroupVersionKind/GroupVersionKindName
// identifiers, TypeMeta, Metadata, and the Resource interface every
// kind implements.
package api

import (
	"fmt"
	"strings"
)

// GroupVersion identifies an API group and version, e.g. "acl/v1".
// Equality is case-insensitive.
type GroupVersion struct {
	Group   string
	Version string
}

// NewGroupVersion builds a GroupVersion from its components.
func NewGroupVersion(group, version string) GroupVersion {
	return GroupVersion{Group: group, Version: version}
}

// ParseGroupVersion parses a "group/version" string.
func ParseGroupVersion(s string) (GroupVersion, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return GroupVersion{}, fmt.Errorf("invalid GroupVersion %q", s)
	}
	return GroupVersion{Group: parts[0], Version: parts[1]}, nil
}

// String renders the lowercase display form "group/version".
func (gv GroupVersion) String() string {
	return strings.ToLower(gv.Group) + "/" + strings.ToLower(gv.Version)
}

// Equal reports case-insensitive equality.
func (gv GroupVersion) Equal(other GroupVersion) bool {
	return strings.EqualFold(gv.Group, other.Group) && strings.EqualFold(gv.Version, other.Version)
}

// GroupVersionKind identifies a resource kind within a group/version,
// e.g. "acl/v1/policy".
type GroupVersionKind struct {
	GV   GroupVersion
	Kind string
}

// NewGroupVersionKind builds a GroupVersionKind from its components.
func NewGroupVersionKind(group, version, kind string) GroupVersionKind {
	return GroupVersionKind{GV: NewGroupVersion(group, version), Kind: kind}
}

// ParseGroupVersionKind parses a "group/version/kind" string.
func ParseGroupVersionKind(s string) (GroupVersionKind, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return GroupVersionKind{}, fmt.Errorf("invalid GroupVersionKind %q", s)
	}
	return GroupVersionKind{GV: GroupVersion{Group: parts[0], Version: parts[1]}, Kind: parts[2]}, nil
}

// String renders the lowercase display form "group/version/kind".
func (gvk GroupVersionKind) String() string {
	return gvk.GV.String() + "/" + strings.ToLower(gvk.Kind)
}

// Equal reports case-insensitive equality.
func (gvk GroupVersionKind) Equal(other GroupVersionKind) bool {
	return gvk.GV.Equal(other.GV) && strings.EqualFold(gvk.Kind, other.Kind)
}

// GroupVersionKindName is a fully qualified resource reference:
// "group/version/kind/name", all case-insensitively compared.
type GroupVersionKindName struct {
	GVK  GroupVersionKind
	Name string
}

// NewGroupVersionKindName builds a GroupVersionKindName from its components.
func NewGroupVersionKindName(group, version, kind, name string) GroupVersionKindName {
	return GroupVersionKindName{GVK: NewGroupVersionKind(group, version, kind), Name: name}
}

// ParseGroupVersionKindName parses a "group/version/kind/name" string.
func ParseGroupVersionKindName(s string) (GroupVersionKindName, error) {
	parts := strings.SplitN(s, "/", 4)
	if len(parts) != 4 {
		return GroupVersionKindName{}, fmt.Errorf("invalid GroupVersionKindName %q", s)
	}
	return GroupVersionKindName{
		GVK:  GroupVersionKind{GV: GroupVersion{Group: parts[0], Version: parts[1]}, Kind: parts[2]},
		Name: parts[3],
	}, nil
}

// String renders the lowercase display form "group/version/kind/name".
func (gvkn GroupVersionKindName) String() string {
	return gvkn.GVK.String() + "/" + strings.ToLower(gvkn.Name)
}

// Equal reports case-insensitive equality.
func (gvkn GroupVersionKindName) Equal(other GroupVersionKindName) bool {
	return gvkn.GVK.Equal(other.GVK) && strings.EqualFold(gvkn.Name, other.Name)
}

// Matches reports whether gvkn satisfies a Policy Rule entry. A pattern
// whose Name is "*" matches any name within the same GroupVersionKind;
// one whose Kind and Name are both "*" matches any kind and name within
// the same group/version. Every other component is compared literally
// (case-insensitively), so a "*" group or version matches only itself.
func (gvkn GroupVersionKindName) Matches(pattern GroupVersionKindName) bool {
	if pattern.Name == "*" {
		return pattern.GVK.Equal(gvkn.GVK) || (pattern.GVK.Kind == "*" && pattern.GVK.GV.Equal(gvkn.GVK.GV))
	}
	return gvkn.Equal(pattern)
}

// GroupKindName identifies a resource by group, kind, and name without
// a version, used where the caller doesn't need to disambiguate
// versions (storage partition keys are typically kind-plural scoped,
// not version scoped).
type GroupKindName struct {
	Group string
	Kind  string
	Name  string
}

// NewGroupKindName builds a GroupKindName from its components.
func NewGroupKindName(group, kind, name string) GroupKindName {
	return GroupKindName{Group: group, Kind: kind, Name: name}
}

// String renders the lowercase display form "group/kind/name".
func (gkn GroupKindName) String() string {
	return strings.ToLower(gkn.Group) + "/" + strings.ToLower(gkn.Kind) + "/" + strings.ToLower(gkn.Name)
}

// Equal reports case-insensitive equality.
func (gkn GroupKindName) Equal(other GroupKindName) bool {
	return strings.EqualFold(gkn.Group, other.Group) &&
		strings.EqualFold(gkn.Kind, other.Kind) &&
		strings.EqualFold(gkn.Name, other.Name)
}

// KindNamedRef is a resource reference scoped to a kind and name only,
// used where the group/version is contextual (e.g. a PolicyAttachment's
// subject kind is always "User" or "Role" within the acl group).
type KindNamedRef struct {
	Kind string
	Name string
}

// NewKindNamedRef builds a KindNamedRef from its components.
func NewKindNamedRef(kind, name string) KindNamedRef {
	return KindNamedRef{Kind: kind, Name: name}
}

// ParseKindNamedRef parses a "kind/name" string.
func ParseKindNamedRef(s string) (KindNamedRef, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return KindNamedRef{}, fmt.Errorf("invalid KindNamedRef %q", s)
	}
	return KindNamedRef{Kind: parts[0], Name: parts[1]}, nil
}

// String renders the lowercase display form "kind/name".
func (r KindNamedRef) String() string {
	return strings.ToLower(r.Kind) + "/" + strings.ToLower(r.Name)
}

// Equal reports case-insensitive equality.
func (r KindNamedRef) Equal(other KindNamedRef) bool {
	return strings.EqualFold(r.Kind, other.Kind) && strings.EqualFold(r.Name, other.Name)
}

// NamedRef is a reference to a resource by name alone, used within a
// single kind's own CRUD surface (e.g. PolicyAttachment.PolicyRef).
type NamedRef struct {
	Name string
}

// NewNamedRef builds a NamedRef from a name.
func NewNamedRef(name string) NamedRef {
	return NamedRef{Name: name}
}

// String renders the lowercase display form.
func (r NamedRef) String() string {
	return strings.ToLower(r.Name)
}

// Equal reports case-insensitive equality.
func (r NamedRef) Equal(other NamedRef) bool {
	return strings.EqualFold(r.Name, other.Name)
}
