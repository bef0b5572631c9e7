package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/latticectl/core/pkg/docstore"
	"github.com/latticectl/core/pkg/logger"
)

// EventKind distinguishes how an Event was produced, so reconcilers
// that only care about changes (not the periodic catch-up resync) can
// filter.
type EventKind int

const (
	// EventChanged is emitted from the change-feed source: a document
	// was created, updated, or deleted.
	EventChanged EventKind = iota
	// EventResync is emitted from the periodic full-list source: the
	// safety net against missed change events.
	EventResync
)

// Event is a single delivery from a Watcher: the resource as currently
// read, or the zero value if Deleted is true because the document is
// gone. A tombstoned document that still exists arrives with Deleted
// false and its deletion timestamp set.
type Event[T any] struct {
	Name    string
	Kind    EventKind
	Deleted bool
	Doc     T
}

// watcherChangesStore is the narrower slice of Store a Watcher needs
// beyond ResourceManager's CRUD, isolated so Watcher can be
// constructed against the same Store a ResourceManager uses.
type watcherChangesStore interface {
	ChangesSince(ctx context.Context, seq string) (<-chan docstore.ChangeEvent, error)
}

// Watcher fans out two concurrent event sources for a single resource
// kind into one bounded output channel: the document substrate's
// change feed, and a periodic full-list resync. Event ordering within
// a source is FIFO; across sources no ordering is promised, so
// consumers must be idempotent.
type Watcher[T any] struct {
	manager        *ResourceManager[T]
	changes        watcherChangesStore
	resyncInterval time.Duration
	lastSeq        string
}

// NewWatcher builds a Watcher for manager's kind, using changes as the
// change-feed source and resyncInterval as the periodic-resync period.
func NewWatcher[T any](manager *ResourceManager[T], changes watcherChangesStore, resyncInterval time.Duration) *Watcher[T] {
	return &Watcher[T]{manager: manager, changes: changes, resyncInterval: resyncInterval}
}

// Start launches the watcher's two sources under a supervising
// errgroup and returns the bounded output channel (capacity 4,
// matching the runtime's backpressure policy). The channel is closed
// once both sources have exited after ctx is cancelled.
func (w *Watcher[T]) Start(ctx context.Context) <-chan Event[T] {
	out := make(chan Event[T], 4)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { w.runChangeStream(gctx, out); return nil })
	g.Go(func() error { w.runResync(gctx, out); return nil })
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

func (w *Watcher[T]) runChangeStream(ctx context.Context, out chan<- Event[T]) {
	for {
		if ctx.Err() != nil {
			return
		}
		changes, err := w.changes.ChangesSince(ctx, w.lastSeq)
		if err != nil {
			logger.Errorw("restarting change stream after error", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for ev := range changes {
			if ev.End {
				w.lastSeq = ev.LastSeq
				break
			}
			w.deliverChanged(ctx, out, ev)
		}
	}
}

func (w *Watcher[T]) deliverChanged(ctx context.Context, out chan<- Event[T], ev docstore.ChangeEvent) {
	doc, found, err := w.manager.FindByID(ctx, ev.ID)
	if err != nil {
		logger.Errorw("reading changed resource", "id", ev.ID, "error", err)
		return
	}
	event := Event[T]{Name: ev.ID, Kind: EventChanged, Deleted: !found}
	if found {
		event.Doc = doc
	}
	select {
	case out <- event:
	case <-ctx.Done():
	}
}

func (w *Watcher[T]) runResync(ctx context.Context, out chan<- Event[T]) {
	ticker := time.NewTicker(w.resyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, err := w.manager.ListAll(ctx)
			if err != nil {
				logger.Errorw("periodic resync listing failed, retrying next tick", "error", err, "interval", w.resyncInterval)
				continue
			}
			for _, item := range items {
				select {
				case out <- Event[T]{Kind: EventResync, Doc: item}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
