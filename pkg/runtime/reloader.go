package runtime

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Reloader composes several Reconcilers (one per relevant kind) that
// all delegate to a single derived artifact's rebuild, coalesced
// through a singleflight group. The ACL enforcer's model rebuild is
// the canonical use: a change to any of Policy, PolicyAttachment, or
// RoleAttachment should trigger the same reload, and a burst of
// concurrent triggers should collapse into a single in-flight rebuild
// rather than queuing one per caller.
type Reloader struct {
	group  singleflight.Group
	reload func() error
}

// NewReloader builds a Reloader invoking reload on every trigger.
func NewReloader(reload func() error) *Reloader {
	return &Reloader{reload: reload}
}

// TriggerReload joins the in-flight reload if one is already running,
// or starts a new one otherwise, and returns its result.
func (r *Reloader) TriggerReload() error {
	_, err, _ := r.group.Do("reload", func() (any, error) {
		return nil, r.reload()
	})
	return err
}

// ReconcilerFor returns a Reconciler suitable for registering against
// any kind this reloader cares about: every event triggers the same
// shared reload, regardless of which kind or name produced it.
func ReconcilerFor[T any](r *Reloader) Reconciler[T] {
	return func(_ context.Context, _ string, _ Event[T]) error {
		if err := r.TriggerReload(); err != nil {
			return WrapAndRetry(err)
		}
		return nil
	}
}
