package performance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load. Loads ignore the cancellation of the
// caller that started them; every waiter gets the same result.
const loadTimeout = 30 * time.Second

// currentFlight is the singleflight key of the current-model pointer.
const currentFlight = "current"

// ModelCache keeps loaded snapshots per signature and remembers which one is
// current. Concurrent misses for the same key share one load. Handles stay
// valid after Invalidate; the old snapshot is dropped once its last handle is
// released.
type ModelCache struct {
	repo    performance.SnapshotRepository
	metrics *metrics.Metrics
	group   singleflight.Group

	mu      sync.Mutex
	entries map[performance.Signature]*cacheEntry
	// generation changes on every Put or Invalidate so a slow load cannot
	// install a snapshot older than one written meanwhile.
	generation map[performance.Signature]uint64

	// current is meaningful once currentKnown is set; nil then means no model.
	current      *performance.CurrentModel
	currentKnown bool
	currentGen   uint64
}

type cacheEntry struct {
	snapshot *performance.Snapshot
	refs     int
	evicted  bool
}

// ModelHandle is a borrowed snapshot. Call Release when done.
type ModelHandle struct {
	Snapshot *performance.Snapshot

	cache *ModelCache
	entry *cacheEntry
	once  sync.Once
}

func NewModelCache(repo performance.SnapshotRepository, m *metrics.Metrics) *ModelCache {
	return &ModelCache{
		repo:       repo,
		metrics:    m,
		entries:    make(map[performance.Signature]*cacheEntry),
		generation: make(map[performance.Signature]uint64),
	}
}

// Acquire returns the snapshot for sig, loading it on a miss. A missing
// snapshot surfaces the repository's ErrModelNotFound.
func (c *ModelCache) Acquire(ctx context.Context, sig performance.Signature) (*ModelHandle, error) {
	if h := c.borrow(sig); h != nil {
		c.metrics.CacheHit()
		return h, nil
	}
	c.metrics.CacheMiss()

	c.mu.Lock()
	gen := c.generation[sig]
	c.mu.Unlock()

	v, err, _ := c.group.Do(sig.String(), func() (any, error) {
		loadCtx, cancel := detached(ctx)
		defer cancel()
		snap, err := c.repo.Load(loadCtx, sig)
		if err != nil {
			return nil, err
		}
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	snap := v.(*performance.Snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[sig]; ok {
		return c.handle(e), nil
	}
	e := &cacheEntry{snapshot: snap}
	if c.generation[sig] == gen {
		c.entries[sig] = e
	} else {
		e.evicted = true
	}
	return c.handle(e), nil
}

// Put installs a freshly trained snapshot, replacing any cached one.
func (c *ModelCache) Put(sig performance.Signature, snap performance.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(sig)
	c.entries[sig] = &cacheEntry{snapshot: &snap}
}

// Invalidate drops the cached snapshot for sig; the next Acquire reloads it.
func (c *ModelCache) Invalidate(sig performance.Signature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(sig)
	c.group.Forget(sig.String())
}

// Current returns the pointer to the most recently trained model, reading it
// from the repository once. ErrModelNotFound means no model is current.
func (c *ModelCache) Current(ctx context.Context) (performance.CurrentModel, error) {
	c.mu.Lock()
	if c.currentKnown {
		defer c.mu.Unlock()
		if c.current == nil {
			return performance.CurrentModel{}, performance.ErrModelNotFound
		}
		return *c.current, nil
	}
	gen := c.currentGen
	c.mu.Unlock()

	v, err, _ := c.group.Do(currentFlight, func() (any, error) {
		loadCtx, cancel := detached(ctx)
		defer cancel()
		cur, err := c.repo.LoadCurrent(loadCtx)
		if errors.Is(err, performance.ErrModelNotFound) {
			return (*performance.CurrentModel)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return &cur, nil
	})
	if err != nil {
		return performance.CurrentModel{}, err
	}
	cur := v.(*performance.CurrentModel)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentGen == gen {
		c.current, c.currentKnown = cur, true
	}
	if cur == nil {
		return performance.CurrentModel{}, performance.ErrModelNotFound
	}
	return *cur, nil
}

// SetCurrent records cur as the model predict-only calls use.
func (c *ModelCache) SetCurrent(cur performance.CurrentModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentGen++
	c.current, c.currentKnown = &cur, true
}

// ClearCurrent records that no model is current.
func (c *ModelCache) ClearCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentGen++
	c.current, c.currentKnown = nil, true
}

// Refs reports the outstanding handles of the cached entry for sig.
func (c *ModelCache) Refs(sig performance.Signature) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[sig]; ok {
		return e.refs
	}
	return 0
}

func (c *ModelCache) borrow(sig performance.Signature) *ModelHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sig]
	if !ok {
		return nil
	}
	return c.handle(e)
}

func (c *ModelCache) handle(e *cacheEntry) *ModelHandle {
	e.refs++
	return &ModelHandle{Snapshot: e.snapshot, cache: c, entry: e}
}

func (c *ModelCache) evictLocked(sig performance.Signature) {
	c.generation[sig]++
	if e, ok := c.entries[sig]; ok {
		e.evicted = true
		delete(c.entries, sig)
		if e.refs == 0 {
			e.snapshot = nil
		}
	}
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
}

// Release returns the handle. Calling it more than once is a no-op.
func (h *ModelHandle) Release() {
	h.once.Do(func() {
		c := h.cache
		c.mu.Lock()
		defer c.mu.Unlock()
		h.entry.refs--
		if h.entry.evicted && h.entry.refs == 0 {
			h.entry.snapshot = nil
		}
	})
}
