package api

import (
	"time"

	"github.com/google/uuid"
)

// recentlyCreatedWindow bounds how long after creation a resource is
// still considered "just created", used by reconcilers to suppress
// no-op reconciliations triggered by their own status write.
const recentlyCreatedWindow = time.Second

// TypeMeta identifies the kind of a resource body, independent of the
// partitioned storage envelope it is wrapped in.
type TypeMeta struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	KindPlural string `json:"kindPlural"`
}

// GroupVersionKind reconstructs the GVK this TypeMeta describes, given
// the group it is registered under (TypeMeta itself only carries the
// version half of "group/version").
func (tm TypeMeta) GroupVersionKind(group string) GroupVersionKind {
	return NewGroupVersionKind(group, tm.APIVersion, tm.Kind)
}

// Metadata carries the bookkeeping common to every resource kind: its
// name, creation/deletion timestamps, and the finalizer list gating
// physical deletion.
type Metadata struct {
	Name              string     `json:"name"`
	CreationTimestamp time.Time  `json:"creationTimestamp"`
	DeletionTimestamp *time.Time `json:"deletionTimestamp,omitempty"`
	Finalizers        []string   `json:"finalizers,omitempty"`
}

// NewMetadata stamps a fresh Metadata for a newly created resource.
func NewMetadata(name string, now time.Time) Metadata {
	return Metadata{Name: name, CreationTimestamp: now}
}

// IsJustCreated reports whether this resource's creation timestamp
// falls within the last second relative to now, used to suppress
// reconciliations that would otherwise race the writer that just
// created the document.
func (m Metadata) IsJustCreated(now time.Time) bool {
	return now.Sub(m.CreationTimestamp) <= recentlyCreatedWindow
}

// IsTombstoned reports whether deletion has been requested.
func (m Metadata) IsTombstoned() bool {
	return m.DeletionTimestamp != nil
}

// HasFinalizers reports whether any finalizer still blocks physical
// deletion.
func (m Metadata) HasFinalizers() bool {
	return len(m.Finalizers) > 0
}

// Tombstone marks the resource for deletion by stamping
// DeletionTimestamp, if it isn't already set.
func (m Metadata) Tombstone(now time.Time) Metadata {
	if m.DeletionTimestamp == nil {
		t := now
		m.DeletionTimestamp = &t
	}
	return m
}

// WithFinalizer returns a copy of m with name appended to Finalizers,
// unless it is already present.
func (m Metadata) WithFinalizer(name string) Metadata {
	for _, f := range m.Finalizers {
		if f == name {
			return m
		}
	}
	m.Finalizers = append(append([]string{}, m.Finalizers...), name)
	return m
}

// WithoutFinalizer returns a copy of m with name removed from Finalizers.
func (m Metadata) WithoutFinalizer(name string) Metadata {
	out := make([]string, 0, len(m.Finalizers))
	for _, f := range m.Finalizers {
		if f != name {
			out = append(out, f)
		}
	}
	m.Finalizers = out
	return m
}

// Resource is the interface every persisted kind implements so the
// resource manager and controller runtime can operate on it
// generically: read its TypeMeta/Metadata, and — for status-carrying
// kinds — read and replace its Status subdocument.
type Resource interface {
	GetTypeMeta() TypeMeta
	GetMetadata() Metadata
	SetMetadata(Metadata)
}

// StatusHolder is implemented by kinds that carry a terminal-condition
// Status subdocument (e.g. OAuthClient), distinct from the plain
// Resource interface that status-free kinds (e.g. Policy) implement.
type StatusHolder[S any] interface {
	Resource
	GetStatus() S
	SetStatus(S)
}

// Envelope is the partitioned storage wrapper every persisted document
// is read and written through: an `_id` derived from the kind's
// partition and the resource name ("kind_plural:name"), an optional
// server-assigned `_rev` for optimistic concurrency, and the typed
// resource body.
type Envelope[T any] struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev,omitempty"`
	Doc T      `json:"resource"`
}

// PartitionedID joins a partition (typically a kind's plural) and an
// id into the storage substrate's "<partition>:<id>" identifier form.
func PartitionedID(partition, id string) string {
	return partition + ":" + id
}

// GenerateName returns a fresh UUID suitable as a resource name, for
// creation endpoints that let the server assign an identifier rather
// than requiring the caller to choose one.
func GenerateName() string {
	return uuid.NewString()
}
