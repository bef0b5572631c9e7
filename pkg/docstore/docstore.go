// Package docstore is the document substrate: a thin client over a
// partitioned, revisioned document database (CouchDB via go-kivik)
// providing put/get/delete with optimistic concurrency, partitioned
// listings, Mango-style find, and a continuous change feed. Every
// other core component — the resource manager, the ACL enforcer, the
// OAuth2 core — reads and writes through this package alone.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	kivik "github.com/go-kivik/kivik/v4"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
)

// Store wraps a single kivik-backed database, exposing the operations
// the resource manager and controller runtime are built on.
type Store struct {
	client *kivik.Client
	db     *kivik.DB
	name   string
}

// Open connects to the backing database server at dsn using driver
// (e.g. "couch" for CouchDB, "pouch" for an embedded store in tests).
func Open(ctx context.Context, driver, dsn string) (*kivik.Client, error) {
	client, err := kivik.New(driver, dsn)
	if err != nil {
		return nil, coreerrors.NewServerError("connecting to document store", err)
	}
	if err := client.Err(); err != nil {
		return nil, coreerrors.NewServerError("document store handshake failed", err)
	}
	return client, nil
}

// EnsureDatabase creates the named database if it doesn't already
// exist. An "already exists" response from the server is treated as
// success, not an error, matching the substrate's idempotent-create
// contract.
func EnsureDatabase(ctx context.Context, client *kivik.Client, name string, partitioned bool) (*Store, error) {
	exists, err := client.DBExists(ctx, name)
	if err != nil {
		return nil, coreerrors.NewServerError("checking database existence", err)
	}
	if !exists {
		opts := kivik.Params(map[string]interface{}{"partitioned": partitioned})
		if err := client.CreateDB(ctx, name, opts); err != nil && !isConflict(err) {
			return nil, coreerrors.NewServerError(fmt.Sprintf("creating database %q", name), err)
		}
	}
	db := client.DB(name)
	if err := db.Err(); err != nil {
		return nil, coreerrors.NewServerError(fmt.Sprintf("opening database %q", name), err)
	}
	return &Store{client: client, db: db, name: name}, nil
}

// Get reads the document at id. A not-found result from the server is
// translated to (false, "", nil) — absent is not an error.
func (s *Store) Get(ctx context.Context, id string, out interface{}) (found bool, rev string, err error) {
	row := s.db.Get(ctx, id)
	if err := row.Err(); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return false, "", nil
		}
		return false, "", coreerrors.NewServerError(fmt.Sprintf("getting document %q", id), err)
	}
	if err := row.ScanDoc(out); err != nil {
		return false, "", coreerrors.NewServerError(fmt.Sprintf("decoding document %q", id), err)
	}
	return true, row.Rev, nil
}

// Put creates or updates the document at id. If rev is empty this is a
// create: a conflict means the id already exists. If rev is non-empty
// a conflict means the caller's view is stale; both surface as
// TypeRevisionConflict so callers can reload-and-retry.
func (s *Store) Put(ctx context.Context, id string, doc interface{}, rev string) (newRev string, err error) {
	opts := kivik.Params(map[string]interface{}{})
	if rev != "" {
		opts = kivik.Params(map[string]interface{}{"rev": rev})
	}
	newRev, err = s.db.Put(ctx, id, doc, opts)
	if err != nil {
		if isConflict(err) {
			return "", coreerrors.NewRevisionConflictError(fmt.Sprintf("writing document %q", id), err)
		}
		return "", coreerrors.NewServerError(fmt.Sprintf("writing document %q", id), err)
	}
	return newRev, nil
}

// Delete removes the document at id at the given revision.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	_, err := s.db.Delete(ctx, id, kivik.Rev(rev))
	if err != nil {
		if isConflict(err) {
			return coreerrors.NewRevisionConflictError(fmt.Sprintf("deleting document %q", id), err)
		}
		return coreerrors.NewServerError(fmt.Sprintf("deleting document %q", id), err)
	}
	return nil
}

// Row is a single result from ListPartitioned or Find: the document's
// id, revision, and raw JSON body.
type Row struct {
	ID  string
	Rev string
	Doc json.RawMessage
}

// ListPartitioned returns up to limit+1 rows from partition starting
// at startKey (if non-empty); the excess row, when present, yields the
// key to resume from on the next page.
func (s *Store) ListPartitioned(ctx context.Context, partition string, limit int, startKey string) ([]Row, error) {
	opts := map[string]interface{}{
		"include_docs": true,
		"limit":        limit + 1,
	}
	if startKey != "" {
		opts["start_key"] = fmt.Sprintf("%q", startKey)
	}
	rs := s.db.AllDocs(ctx, kivik.PartitionKey(partition), kivik.Params(opts))
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var doc json.RawMessage
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, coreerrors.NewServerError("decoding listed document", err)
		}
		rows = append(rows, Row{ID: rs.ID(), Rev: rs.Rev(), Doc: doc})
	}
	if err := rs.Err(); err != nil {
		return nil, coreerrors.NewServerError(fmt.Sprintf("listing partition %q", partition), err)
	}
	return rows, nil
}

// FindResult is the response to Find: the matched documents and an
// opaque bookmark for continuation.
type FindResult struct {
	Docs     []json.RawMessage
	Bookmark string
}

// Find runs a Mango-style selector query, returning up to limit
// matches continuing from bookmark (pass "" for the first page).
func (s *Store) Find(ctx context.Context, selector map[string]interface{}, limit int, bookmark string) (FindResult, error) {
	query := map[string]interface{}{
		"selector": selector,
		"limit":    limit,
	}
	if bookmark != "" {
		query["bookmark"] = bookmark
	}
	rs := s.db.Find(ctx, query)
	defer rs.Close()

	var result FindResult
	for rs.Next() {
		var doc json.RawMessage
		if err := rs.ScanDoc(&doc); err != nil {
			return FindResult{}, coreerrors.NewServerError("decoding find result", err)
		}
		result.Docs = append(result.Docs, doc)
	}
	if err := rs.Err(); err != nil {
		return FindResult{}, coreerrors.NewServerError("executing find query", err)
	}
	result.Bookmark, _ = rs.Bookmark()
	return result, nil
}

// ChangeEvent is a single entry from a change feed subscription: a
// modified or deleted document, or an End marker carrying the
// sequence a caller should resume from.
type ChangeEvent struct {
	ID      string
	Seq     string
	Deleted bool
	End     bool
	LastSeq string
}

// ChangesSince opens a continuous change feed starting after seq,
// delivering events to the returned channel until ctx is cancelled.
// Consumers advance their persisted seq on every End event, per the
// substrate's resume contract.
func (s *Store) ChangesSince(ctx context.Context, seq string) (<-chan ChangeEvent, error) {
	opts := map[string]interface{}{"feed": "continuous", "heartbeat": 10000}
	if seq != "" {
		opts["since"] = seq
	}
	changes := s.db.Changes(ctx, kivik.Params(opts))

	out := make(chan ChangeEvent, 64)
	go func() {
		defer close(out)
		defer changes.Close()
		for changes.Next() {
			select {
			case out <- ChangeEvent{ID: changes.ID(), Seq: changes.Seq(), Deleted: changes.Deleted()}:
			case <-ctx.Done():
				return
			}
		}
		if err := changes.Err(); err != nil {
			logger.Errorw("change feed terminated", "database", s.name, "error", err)
			return
		}
		select {
		case out <- ChangeEvent{End: true, LastSeq: changes.LastSeq()}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// ListForKey runs a design document view (map/reduce index) for a
// single key.
func (s *Store) ListForKey(ctx context.Context, ddoc, view, key string, limit, skip int) ([]Row, error) {
	opts := kivik.Params(map[string]interface{}{
		"key":          fmt.Sprintf("%q", key),
		"limit":        limit,
		"skip":         skip,
		"include_docs": true,
	})
	rs := s.db.Query(ctx, ddoc, view, opts)
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var doc json.RawMessage
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, coreerrors.NewServerError("decoding view row", err)
		}
		rows = append(rows, Row{ID: rs.ID(), Rev: rs.Rev(), Doc: doc})
	}
	if err := rs.Err(); err != nil {
		return nil, coreerrors.NewServerError(fmt.Sprintf("querying view %s/%s", ddoc, view), err)
	}
	return rows, nil
}

func isConflict(err error) bool {
	return kivik.HTTPStatus(err) == 409
}
