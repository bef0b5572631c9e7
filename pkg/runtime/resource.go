// Package runtime is the resource manager and controller runtime built
// on top of pkg/docstore: typed CRUD over resource envelopes, a
// watcher that fans out change-feed and periodic-resync events to
// reconcilers, retrying dispatch, and a garbage collector for
// finalizer-free tombstoned documents.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/latticectl/core/pkg/api"
	"github.com/latticectl/core/pkg/docstore"
	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
	"github.com/latticectl/core/pkg/pagination"
)

// Store is the subset of pkg/docstore.Store the resource manager and
// controller runtime depend on. Depending on this narrow interface
// rather than the concrete type keeps both unit-testable against an
// in-memory fake.
type Store interface {
	Get(ctx context.Context, id string, out interface{}) (found bool, rev string, err error)
	Put(ctx context.Context, id string, doc interface{}, rev string) (newRev string, err error)
	Delete(ctx context.Context, id, rev string) error
	ListPartitioned(ctx context.Context, partition string, limit int, startKey string) (rows []docstore.Row, err error)
}

// ResourceManager wraps a Store to present typed CRUD for a single
// resource kind. Ids are derived as "<kindPlural>:<name>".
type ResourceManager[T any] struct {
	store      Store
	kindPlural string
}

// NewResourceManager builds a manager for kind, identified in storage
// by kindPlural (e.g. "policies").
func NewResourceManager[T any](store Store, kindPlural string) *ResourceManager[T] {
	return &ResourceManager[T]{store: store, kindPlural: kindPlural}
}

func (m *ResourceManager[T]) id(name string) string {
	return api.PartitionedID(m.kindPlural, name)
}

// List returns up to limit resources starting at startKey, wrapped
// in a pagination.Page: the manager fetches limit+1 rows and
// pagination.FromOverfetched resolves the extra row, if present, into
// the page's next-page token.
func (m *ResourceManager[T]) List(ctx context.Context, startKey string, limit int) (pagination.Page[T], error) {
	rows, err := m.store.ListPartitioned(ctx, m.kindPlural, limit, startKey)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	page := pagination.FromOverfetched(rows, limit, func(r docstore.Row) string { return r.ID })

	items := make([]T, 0, len(page.Items()))
	for _, row := range page.Items() {
		var env api.Envelope[T]
		if err := json.Unmarshal(row.Doc, &env); err != nil {
			return pagination.Page[T]{}, coreerrors.NewServerError(fmt.Sprintf("decoding %s %q", m.kindPlural, row.ID), err)
		}
		items = append(items, env.Doc)
	}
	return pagination.WithToken(items, page.NextToken()), nil
}

// ListAll returns the unbounded listing, used by reloaders and
// reconciler periodic resync ticks.
func (m *ResourceManager[T]) ListAll(ctx context.Context) ([]T, error) {
	const pageSize = 100
	var all []T
	startKey := ""
	for {
		page, err := m.List(ctx, startKey, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items()...)
		if !page.HasNext() {
			return all, nil
		}
		startKey = page.NextToken()
	}
}

// Find returns the resource named name, or (zero, false, nil) if absent.
func (m *ResourceManager[T]) Find(ctx context.Context, name string) (T, bool, error) {
	var env api.Envelope[T]
	found, rev, err := m.store.Get(ctx, m.id(name), &env)
	if err != nil {
		var zero T
		return zero, false, err
	}
	env.Rev = rev
	if !found {
		var zero T
		return zero, false, nil
	}
	return env.Doc, true, nil
}

// FindByID resolves a document by its fully partitioned storage id
// (e.g. as delivered on the change feed), rather than a bare name.
// Used by the Watcher, which only ever sees fully qualified ids.
func (m *ResourceManager[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var env api.Envelope[T]
	found, _, err := m.store.Get(ctx, id, &env)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if !found {
		var zero T
		return zero, false, nil
	}
	return env.Doc, true, nil
}

// Get returns the resource named name, or a not-found error if absent.
func (m *ResourceManager[T]) Get(ctx context.Context, name string) (T, error) {
	doc, found, err := m.Find(ctx, name)
	if err != nil {
		return doc, err
	}
	if !found {
		var zero T
		return zero, coreerrors.NewNotFoundError(fmt.Sprintf("%s %q not found", m.kindPlural, name), nil)
	}
	return doc, nil
}

// Put creates or updates the resource named name. If an envelope
// already exists its _rev is carried into the write; on success the
// manager re-reads the document so callers observe server-assigned
// fields (e.g. a status a controller has since mutated).
func (m *ResourceManager[T]) Put(ctx context.Context, name string, resource T) (T, error) {
	id := m.id(name)
	var existing api.Envelope[T]
	found, rev, err := m.store.Get(ctx, id, &existing)
	if err != nil {
		var zero T
		return zero, err
	}

	env := api.Envelope[T]{ID: id, Doc: resource}
	if found {
		env.Rev = rev
		logger.Debugw("updating resource", "kind", m.kindPlural, "name", name, "rev", rev)
	} else {
		logger.Debugw("creating resource", "kind", m.kindPlural, "name", name)
	}

	if _, err := m.store.Put(ctx, id, env, env.Rev); err != nil {
		var zero T
		return zero, err
	}
	return m.Get(ctx, name)
}

// Delete looks up the envelope for name, then deletes it at its
// current _rev.
func (m *ResourceManager[T]) Delete(ctx context.Context, name string) error {
	id := m.id(name)
	var env api.Envelope[T]
	found, rev, err := m.store.Get(ctx, id, &env)
	if err != nil {
		return err
	}
	if !found {
		return coreerrors.NewNotFoundError(fmt.Sprintf("%s %q not found", m.kindPlural, name), nil)
	}
	return m.store.Delete(ctx, id, rev)
}
