package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/latticectl/core/pkg/api"
	"github.com/latticectl/core/pkg/docstore"
	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
)

// gcStore is the slice of Store the garbage collector needs: it
// streams every document across every partition, so it lists at the
// database root rather than through a single kind's ResourceManager.
type gcStore interface {
	ListPartitioned(ctx context.Context, partition string, limit int, startKey string) (rows []docstore.Row, err error)
	Delete(ctx context.Context, id, rev string) error
}

// GarbageCollector is a singleton actor that tombstone-sweeps every
// partition on a tick: any document whose metadata.finalizers is empty
// and whose metadata.deletionTimestamp is set is physically deleted.
// It never touches a document with non-empty finalizers — reconcilers
// rely on that contract to finish draining cleanup before the document
// disappears.
type GarbageCollector struct {
	store      gcStore
	partitions []string
	tick       time.Duration
}

// NewGarbageCollector builds a collector sweeping the given partitions
// (typically one per resource kind's plural) every tick.
func NewGarbageCollector(store gcStore, partitions []string, tick time.Duration) *GarbageCollector {
	return &GarbageCollector{store: store, partitions: partitions, tick: tick}
}

// Run sweeps on every tick until ctx is cancelled.
func (gc *GarbageCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(gc.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gc.sweep(ctx)
		}
	}
}

func (gc *GarbageCollector) sweep(ctx context.Context) {
	for _, partition := range gc.partitions {
		gc.sweepPartition(ctx, partition)
	}
}

func (gc *GarbageCollector) sweepPartition(ctx context.Context, partition string) {
	const pageSize = 200
	startKey := ""
	for {
		rows, err := gc.store.ListPartitioned(ctx, partition, pageSize, startKey)
		if err != nil {
			logger.Errorw("gc: listing partition failed, will retry next tick", "partition", partition, "error", err)
			return
		}
		next := ""
		if len(rows) > pageSize {
			next = rows[pageSize].ID
			rows = rows[:pageSize]
		}
		for _, row := range rows {
			gc.maybeDelete(ctx, row)
		}
		if next == "" {
			return
		}
		startKey = next
	}
}

type envelopeMeta struct {
	Resource struct {
		Metadata api.Metadata `json:"metadata"`
	} `json:"resource"`
}

func (gc *GarbageCollector) maybeDelete(ctx context.Context, row docstore.Row) {
	var env envelopeMeta
	if err := json.Unmarshal(row.Doc, &env); err != nil {
		logger.Errorw("gc: decoding document metadata failed", "id", row.ID, "error", err)
		return
	}
	md := env.Resource.Metadata
	if !md.IsTombstoned() || md.HasFinalizers() {
		return
	}
	if err := gc.store.Delete(ctx, row.ID, row.Rev); err != nil {
		if t, ok := coreerrors.AsType(err); ok && t == coreerrors.TypeRevisionConflict {
			logger.Warnw("gc: delete conflict, will retry next tick", "id", row.ID)
			return
		}
		logger.Errorw("gc: delete failed", "id", row.ID, "error", err)
	}
}
