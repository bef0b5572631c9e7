package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/latticectl/core/pkg/logger"
)

// defaultRetryDelay is the backoff applied to ReconcileError values
// returned via WrapAndRetry, matching the runtime's documented default.
const defaultRetryDelay = 30 * time.Second

// retryMode distinguishes the three ways a Reconciler can signal
// failure handling for the dispatcher.
type retryMode int

const (
	retryNone retryMode = iota
	retryDefault
	retryAfter
)

// ReconcileError is returned by a Reconciler to control how the
// dispatcher responds to a failure: log-and-drop (Wrap), retry after
// the default delay (WrapAndRetry), or retry after a caller-chosen
// delay (WrapWithRetry).
type ReconcileError struct {
	cause error
	mode  retryMode
	delay time.Duration
}

func (e *ReconcileError) Error() string { return e.cause.Error() }
func (e *ReconcileError) Unwrap() error { return e.cause }

// Wrap logs err and drops the event without requeueing.
func Wrap(err error) *ReconcileError {
	return &ReconcileError{cause: err, mode: retryNone}
}

// WrapAndRetry requeues the event after the default retry delay.
func WrapAndRetry(err error) *ReconcileError {
	return &ReconcileError{cause: err, mode: retryDefault}
}

// WrapWithRetry requeues the event after d.
func WrapWithRetry(err error, d time.Duration) *ReconcileError {
	return &ReconcileError{cause: err, mode: retryAfter, delay: d}
}

// Reconciler is the user-supplied handler driving a resource kind to
// convergence. Returning nil acknowledges the event; returning a
// *ReconcileError controls retry behavior per its constructor.
type Reconciler[T any] func(ctx context.Context, name string, ev Event[T]) error

// Dispatcher serializes reconciliation per (kind, name) — the same
// object is never reconciled concurrently by the same controller —
// and implements the retry/backoff policy reconcilers request.
type Dispatcher[T any] struct {
	kind      string
	reconcile Reconciler[T]
	mu        sync.Mutex
	keyLocks  map[string]*sync.Mutex
}

// NewDispatcher builds a Dispatcher for kind, invoking reconcile for
// every delivered Event.
func NewDispatcher[T any](kind string, reconcile Reconciler[T]) *Dispatcher[T] {
	return &Dispatcher[T]{kind: kind, reconcile: reconcile, keyLocks: make(map[string]*sync.Mutex)}
}

// Run drains events until ctx is cancelled or the channel closes,
// dispatching each to a goroutine serialized per (kind, name).
func (d *Dispatcher[T]) Run(ctx context.Context, events <-chan Event[T]) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			go d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher[T]) handle(ctx context.Context, ev Event[T]) {
	lock := d.lockFor(ev.Name)
	lock.Lock()
	err := d.reconcile(ctx, ev.Name, ev)
	lock.Unlock()
	if err == nil {
		return
	}

	rerr, ok := err.(*ReconcileError)
	if !ok {
		logger.Errorw("reconciler returned an unwrapped error, treating as Wrap", "kind", d.kind, "name", ev.Name, "error", err)
		return
	}

	switch rerr.mode {
	case retryNone:
		logger.Errorw("reconciliation failed, dropping", "kind", d.kind, "name", ev.Name, "error", rerr.cause)
	case retryDefault:
		d.requeue(ctx, ev, defaultRetryDelay)
	case retryAfter:
		d.requeue(ctx, ev, rerr.delay)
	}
}

func (d *Dispatcher[T]) requeue(ctx context.Context, ev Event[T], delay time.Duration) {
	logger.Warnw("reconciliation failed, retrying", "kind", d.kind, "name", ev.Name, "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		d.handle(ctx, ev)
	case <-ctx.Done():
	}
}

func (d *Dispatcher[T]) lockFor(name string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.keyLocks[name]
	if !ok {
		l = &sync.Mutex{}
		d.keyLocks[name] = l
	}
	return l
}

// RetryOperation runs op with exponential backoff, used by
// reconcilers that call out to the document substrate directly (e.g.
// to resolve a revision conflict by reloading and retrying).
func RetryOperation(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(op, bo)
}
