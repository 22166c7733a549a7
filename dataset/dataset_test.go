package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/uttam-in/gridstats/stats"
)

// countingLoader records how many loads ran and can be made to fail.
type countingLoader struct {
	mu    sync.Mutex
	loads int32
	fail  bool
	rows  []stats.Row
	gate  chan struct{} // when set, Load blocks until the gate closes
}

func (l *countingLoader) Load(_ context.Context) ([]stats.Row, error) {
	if l.gate != nil {
		<-l.gate
	}
	atomic.AddInt32(&l.loads, 1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errors.New("source offline")
	}
	return l.rows, nil
}

func (l *countingLoader) setRows(rows []stats.Row) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = rows
}

func (l *countingLoader) loadCount() int32 {
	return atomic.LoadInt32(&l.loads)
}

func TestCache_GetBeforeWarm(t *testing.T) {
	c := New(&countingLoader{})
	if _, err := c.Get(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Get before Warm = %v, want ErrNotLoaded", err)
	}
	if c.Loaded() {
		t.Error("Loaded() true before Warm")
	}
}

func TestCache_WarmLoadsOnce(t *testing.T) {
	loader := &countingLoader{rows: []stats.Row{{"player": "A", "year": "2020"}}}
	c := New(loader)

	ctx := context.Background()
	if err := c.Warm(ctx); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if err := c.Warm(ctx); err != nil {
		t.Fatalf("second Warm: %v", err)
	}
	if n := loader.loadCount(); n != 1 {
		t.Errorf("loader ran %d times, want 1", n)
	}

	snap, err := c.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Rows come back normalized.
	if snap.Rows[0].String(stats.ColPlayerName) != "A" {
		t.Errorf("rows not normalized: %v", snap.Rows[0])
	}
	if snap.Rows[0].Int(stats.ColSeason) != 2020 {
		t.Errorf("season not coerced: %v", snap.Rows[0])
	}
}

func TestCache_ConcurrentWarmCollapses(t *testing.T) {
	gate := make(chan struct{})
	loader := &countingLoader{rows: []stats.Row{{"player": "A"}}, gate: gate}
	c := New(loader)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = c.Warm(context.Background())
		}(i)
	}
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Warm #%d: %v", i, err)
		}
	}
	if n := loader.loadCount(); n != 1 {
		t.Errorf("concurrent warms ran the loader %d times, want 1", n)
	}
}

func TestCache_FailedWarmRetries(t *testing.T) {
	loader := &countingLoader{fail: true}
	c := New(loader)

	if err := c.Warm(context.Background()); err == nil {
		t.Fatal("Warm succeeded with failing loader")
	}
	if c.Loaded() {
		t.Error("failed Warm left cache marked loaded")
	}

	loader.mu.Lock()
	loader.fail = false
	loader.rows = []stats.Row{{"player": "A"}}
	loader.mu.Unlock()

	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm after recovery: %v", err)
	}
	if !c.Loaded() {
		t.Error("cache not loaded after recovered Warm")
	}
}

func TestCache_RefreshSwapsAtomically(t *testing.T) {
	loader := &countingLoader{rows: []stats.Row{{"player": "Old"}}}
	c := New(loader)

	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	before, _ := c.Get()

	loader.setRows([]stats.Row{{"player": "New"}, {"player": "Newer"}})
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	after, _ := c.Get()
	if len(after.Rows) != 2 {
		t.Errorf("refreshed snapshot has %d rows, want 2", len(after.Rows))
	}
	// The old generation is untouched for readers that captured it.
	if len(before.Rows) != 1 || before.Rows[0].String(stats.ColPlayerName) != "Old" {
		t.Errorf("previous snapshot mutated by refresh: %v", before.Rows)
	}
}

func TestCache_RefreshFailureKeepsOldSnapshot(t *testing.T) {
	loader := &countingLoader{rows: []stats.Row{{"player": "Old"}}}
	c := New(loader)
	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}

	loader.mu.Lock()
	loader.fail = true
	loader.mu.Unlock()

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh succeeded with failing loader")
	}
	snap, err := c.Get()
	if err != nil || len(snap.Rows) != 1 {
		t.Errorf("old snapshot lost after failed refresh: %v, %v", snap, err)
	}
}

func TestCache_Info(t *testing.T) {
	loader := &countingLoader{rows: []stats.Row{{"player": "A"}, {"player": "B"}}}
	c := New(loader)

	if info := c.Info(); info.Loaded {
		t.Error("Info reports loaded before Warm")
	}
	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	info := c.Info()
	if !info.Loaded || info.Records != 2 || info.LoadedAt.IsZero() {
		t.Errorf("Info = %+v", info)
	}
}
