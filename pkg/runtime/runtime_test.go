package runtime

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticectl/core/pkg/api"
	"github.com/latticectl/core/pkg/docstore"
	coreerrors "github.com/latticectl/core/pkg/errors"
)

// fakeStore is a minimal in-memory implementation of Store (and the
// narrower gcStore/watcherChangesStore interfaces) used to unit-test
// the resource manager, watcher, and GC without a live document store.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]json.RawMessage
	revs    map[string]int
	changes chan docstore.ChangeEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:    make(map[string]json.RawMessage),
		revs:    make(map[string]int),
		changes: make(chan docstore.ChangeEvent, 16),
	}
}

func (s *fakeStore) Get(_ context.Context, id string, out interface{}) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return false, "", nil
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return false, "", err
	}
	return true, strconv.Itoa(s.revs[id]), nil
}

func (s *fakeStore) Put(_ context.Context, id string, doc interface{}, rev string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.revs[id]
	if rev == "" {
		if _, exists := s.docs[id]; exists {
			return "", coreerrors.NewRevisionConflictError("create conflict", nil)
		}
	} else if rev != strconv.Itoa(current) {
		return "", coreerrors.NewRevisionConflictError("stale rev", nil)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	s.docs[id] = raw
	s.revs[id] = current + 1
	newRev := strconv.Itoa(current + 1)
	select {
	case s.changes <- docstore.ChangeEvent{ID: id}:
	default:
	}
	return newRev, nil
}

func (s *fakeStore) Delete(_ context.Context, id, rev string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != strconv.Itoa(s.revs[id]) {
		return coreerrors.NewRevisionConflictError("stale rev on delete", nil)
	}
	delete(s.docs, id)
	delete(s.revs, id)
	select {
	case s.changes <- docstore.ChangeEvent{ID: id, Deleted: true}:
	default:
	}
	return nil
}

func (s *fakeStore) ListPartitioned(_ context.Context, partition string, limit int, startKey string) ([]docstore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	prefix := partition + ":"
	for id := range s.docs {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			if startKey == "" || id >= startKey {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	var rows []docstore.Row
	for _, id := range ids {
		if len(rows) >= limit+1 {
			break
		}
		rows = append(rows, docstore.Row{ID: id, Rev: strconv.Itoa(s.revs[id]), Doc: s.docs[id]})
	}
	return rows, nil
}

func (s *fakeStore) ChangesSince(ctx context.Context, _ string) (<-chan docstore.ChangeEvent, error) {
	out := make(chan docstore.ChangeEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case ev := <-s.changes:
				out <- ev
			case <-time.After(50 * time.Millisecond):
				out <- docstore.ChangeEvent{End: true, LastSeq: "now"}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type testSpec struct {
	TypeMeta api.TypeMeta `json:"typeMeta"`
	Metadata api.Metadata `json:"metadata"`
	Value    string       `json:"value"`
}

func (t testSpec) GetTypeMeta() api.TypeMeta   { return t.TypeMeta }
func (t testSpec) GetMetadata() api.Metadata   { return t.Metadata }
func (t *testSpec) SetMetadata(m api.Metadata) { t.Metadata = m }

func TestResourceManager_PutGetListDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	mgr := NewResourceManager[testSpec](store, "widgets")

	_, err := mgr.Put(ctx, "a", testSpec{Value: "1"})
	require.NoError(t, err)
	_, err = mgr.Put(ctx, "b", testSpec{Value: "2"})
	require.NoError(t, err)

	got, err := mgr.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Value)

	page, err := mgr.List(ctx, "", 10)
	require.NoError(t, err)
	assert.False(t, page.HasNext())
	assert.Len(t, page.Items(), 2)

	all, err := mgr.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, mgr.Delete(ctx, "a"))
	_, err = mgr.Get(ctx, "a")
	assert.Error(t, err)
	typ, ok := coreerrors.AsType(err)
	assert.True(t, ok)
	assert.Equal(t, coreerrors.TypeNotFound, typ)
}

func TestResourceManager_PutCarriesExistingRev(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	mgr := NewResourceManager[testSpec](store, "widgets")

	_, err := mgr.Put(ctx, "a", testSpec{Value: "1"})
	require.NoError(t, err)

	// A second Put must succeed by carrying forward the stored rev,
	// not attempting a fresh create.
	got, err := mgr.Put(ctx, "a", testSpec{Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", got.Value)
}

func TestResourceManager_Find_Absent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	mgr := NewResourceManager[testSpec](store, "widgets")

	_, found, err := mgr.Find(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDispatcher_SerializesPerName(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var concurrent, maxConcurrent int
	events := make(chan Event[testSpec], 10)

	d := NewDispatcher[testSpec]("widgets", func(_ context.Context, _ string, _ Event[testSpec]) error {
		mu.Lock()
		concurrent++
		if concurrent > maxConcurrent {
			maxConcurrent = concurrent
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		concurrent--
		mu.Unlock()
		return nil
	})

	go d.Run(ctx, events)
	for i := 0; i < 5; i++ {
		events <- Event[testSpec]{Name: "same-name"}
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxConcurrent, "events for the same name must never run concurrently")
}

func TestDispatcher_WrapDropsWithoutRetry(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	var mu sync.Mutex
	events := make(chan Event[testSpec], 1)

	d := NewDispatcher[testSpec]("widgets", func(_ context.Context, _ string, _ Event[testSpec]) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return Wrap(assert.AnError)
	})

	go d.Run(ctx, events)
	events <- Event[testSpec]{Name: "x"}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestGarbageCollector_DeletesOnlyFinalizerFreeTombstones(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	mgr := NewResourceManager[testSpec](store, "widgets")

	now := time.Now()
	clean := testSpec{Value: "clean", Metadata: api.NewMetadata("clean", now).Tombstone(now)}
	blocked := testSpec{Value: "blocked", Metadata: api.NewMetadata("blocked", now).WithFinalizer("f").Tombstone(now)}
	alive := testSpec{Value: "alive", Metadata: api.NewMetadata("alive", now)}

	_, err := mgr.Put(ctx, "clean", clean)
	require.NoError(t, err)
	_, err = mgr.Put(ctx, "blocked", blocked)
	require.NoError(t, err)
	_, err = mgr.Put(ctx, "alive", alive)
	require.NoError(t, err)

	gc := NewGarbageCollector(store, []string{"widgets"}, time.Hour)
	gc.sweep(ctx)

	_, found, err := mgr.Find(ctx, "clean")
	require.NoError(t, err)
	assert.False(t, found, "tombstoned, finalizer-free document should be deleted")

	_, found, err = mgr.Find(ctx, "blocked")
	require.NoError(t, err)
	assert.True(t, found, "tombstoned document with finalizers must survive")

	_, found, err = mgr.Find(ctx, "alive")
	require.NoError(t, err)
	assert.True(t, found, "non-tombstoned document must survive")
}

func TestReloader_TriggerReload(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	r := NewReloader(func() error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.TriggerReload()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	// Concurrent triggers coalesce into however many distinct in-flight
	// reloads singleflight actually started — at least one, never more
	// than the number of callers.
	assert.GreaterOrEqual(t, calls, 1)
	assert.LessOrEqual(t, calls, 10)
}

func TestWatcher_PeriodicResyncDeliversExistingResources(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newFakeStore()
	mgr := NewResourceManager[testSpec](store, "widgets")
	_, err := mgr.Put(context.Background(), "a", testSpec{Value: "1"})
	require.NoError(t, err)

	w := NewWatcher(mgr, store, 20*time.Millisecond)
	out := w.Start(ctx)

	var gotResync bool
	deadline := time.After(500 * time.Millisecond)
	for !gotResync {
		select {
		case ev := <-out:
			if ev.Kind == EventResync && ev.Doc.Value == "1" {
				gotResync = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for periodic resync event")
		}
	}
}
