package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/uttam-in/gridstats/dataset"
	"github.com/uttam-in/gridstats/stats"
)

// BulkFile serves historical rows out of the in-memory bulk dataset
// cache. It never touches the network; a missing snapshot means the
// tier is degraded, not broken.
type BulkFile struct {
	cache *dataset.Cache
	now   func() time.Time
}

// NewBulkFile creates a provider over the given dataset cache.
func NewBulkFile(cache *dataset.Cache) *BulkFile {
	return &BulkFile{cache: cache, now: time.Now}
}

// Name returns the canonical provider name.
func (p *BulkFile) Name() string { return NameBulkFile }

// Fetch filters the bulk snapshot down to the requested player and
// range. Before a successful warm the error is transient so the router
// skips to the next provider without burning its retry budget on
// something a retry cannot fix mid-request.
func (p *BulkFile) Fetch(_ context.Context, req FetchRequest) (*stats.Result, error) {
	if req.Player == "" {
		return nil, NewInvalid(NameBulkFile, "player is required")
	}

	snap, err := p.cache.Get()
	if err != nil {
		return nil, NewTransient(NameBulkFile, "bulk dataset not loaded", err)
	}

	rows := filterRows(snap.Rows, req)
	if len(rows) == 0 {
		return nil, NewNotFound(NameBulkFile,
			fmt.Sprintf("no rows for %q in the bulk dataset", req.Player))
	}
	return &stats.Result{
		Rows:      rows,
		Source:    NameBulkFile,
		FetchedAt: p.now(),
	}, nil
}

// Available reports whether the bulk snapshot is loaded.
func (p *BulkFile) Available(_ context.Context) bool {
	return p.cache.Loaded()
}

var _ Provider = (*BulkFile)(nil)
