package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/uttam-in/gridstats/stats"
)

// ErrNotLoaded is returned by Get before a successful Warm. Callers
// treat it as "this source is unavailable; degrade or skip", never as a
// fatal condition.
var ErrNotLoaded = errors.New("dataset: bulk dataset not loaded")

// Loader produces the full bulk dataset from its opaque source.
//
// Contract:
// - Load must be safe to call again after a failure.
// - The returned rows are owned by the dataset cache afterwards.
type Loader interface {
	Load(ctx context.Context) ([]stats.Row, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]stats.Row, error)

// Load calls the wrapped function.
func (f LoaderFunc) Load(ctx context.Context) ([]stats.Row, error) {
	return f(ctx)
}

// Snapshot is one immutable generation of the bulk dataset. Rows must
// not be mutated by readers; copy before modifying.
type Snapshot struct {
	Rows     []stats.Row
	LoadedAt time.Time
}

// Cache is the bulk dataset tier: one large reference dataset, loaded
// once, never individually evicted, swapped wholesale on Refresh.
type Cache struct {
	loader  Loader
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	now     func() time.Time
}

// New creates a bulk dataset cache around the given loader.
func New(loader Loader) *Cache {
	return &Cache{
		loader: loader,
		now:    time.Now,
	}
}

// Warm loads the dataset if it has not been loaded yet. Concurrent
// callers collapse into a single load; every caller observes the same
// outcome. A failed Warm leaves the cache unloaded so a later call can
// retry.
func (c *Cache) Warm(ctx context.Context) error {
	if c.current.Load() != nil {
		return nil
	}
	_, err, _ := c.group.Do("warm", func() (any, error) {
		if snap := c.current.Load(); snap != nil {
			return snap, nil
		}
		return c.load(ctx)
	})
	return err
}

// Refresh reloads the dataset unconditionally and swaps the snapshot
// atomically. In-flight readers keep the generation they already hold.
// On failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.load(ctx)
	})
	return err
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	rows, err := c.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset: load failed: %w", err)
	}
	snap := &Snapshot{
		Rows:     stats.NormalizeRows(rows),
		LoadedAt: c.now(),
	}
	c.current.Store(snap)
	return snap, nil
}

// Get returns the current snapshot, or ErrNotLoaded before the first
// successful Warm.
func (c *Cache) Get() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Loaded reports whether a snapshot is available.
func (c *Cache) Loaded() bool {
	return c.current.Load() != nil
}

// Clear drops the snapshot; the next Warm loads again.
func (c *Cache) Clear() {
	c.current.Store(nil)
}

// Info describes the cache for stats reporting.
type Info struct {
	Loaded   bool      `json:"loaded"`
	Records  int       `json:"records,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Info returns a description of the current snapshot.
func (c *Cache) Info() Info {
	snap := c.current.Load()
	if snap == nil {
		return Info{}
	}
	return Info{
		Loaded:   true,
		Records:  len(snap.Rows),
		LoadedAt: snap.LoadedAt,
	}
}
