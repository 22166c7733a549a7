package router

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/uttam-in/gridstats/provider"
	"github.com/uttam-in/gridstats/stats"
)

type fakeProvider struct {
	name        string
	unavailable bool
	fetch       func(req provider.FetchRequest) (*stats.Result, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Available(context.Context) bool { return !f.unavailable }

func (f *fakeProvider) Fetch(_ context.Context, req provider.FetchRequest) (*stats.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fetch(req)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func rowsFor(player string, yards float64) []stats.Row {
	return []stats.Row{{
		stats.ColPlayerName: player,
		stats.ColSeason:     2025,
		stats.ColWeek:       1,
		"rushing_yards":     yards,
	}}
}

func serving(name string) *fakeProvider {
	f := &fakeProvider{name: name}
	f.fetch = func(req provider.FetchRequest) (*stats.Result, error) {
		return &stats.Result{
			Rows:      rowsFor(req.Player, 100),
			Source:    name,
			FetchedAt: time.Now(),
		}, nil
	}
	return f
}

func failing(name string, kind provider.Kind) *fakeProvider {
	f := &fakeProvider{name: name}
	f.fetch = func(provider.FetchRequest) (*stats.Result, error) {
		switch kind {
		case provider.KindNotFound:
			return nil, provider.NewNotFound(name, "no rows")
		case provider.KindInvalid:
			return nil, provider.NewInvalid(name, "rejected")
		default:
			return nil, provider.NewTransient(name, "upstream down", nil)
		}
	}
	return f
}

func newTestRouter(t *testing.T, providers ...provider.Provider) *Router {
	t.Helper()
	r, err := New(Config{
		Providers:     providers,
		CurrentSeason: 2025,
		RetryDelay:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func currentQuery(players ...string) stats.Query {
	return stats.Query{
		Players: players,
		Range:   stats.TimeRange{StartSeason: 2025},
	}
}

func TestRouter_PlanOrder(t *testing.T) {
	r := newTestRouter(t, serving(provider.NameLiveFeed))

	tests := []struct {
		name string
		tr   stats.TimeRange
		want []string
	}{
		{
			name: "unbounded range treated as current",
			tr:   stats.TimeRange{},
			want: []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile},
		},
		{
			name: "current season prefers live feed",
			tr:   stats.TimeRange{StartSeason: 2025},
			want: []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile},
		},
		{
			name: "historical season prefers bulk file",
			tr:   stats.TimeRange{StartSeason: 2020},
			want: []string{provider.NameBulkFile, provider.NameLiveFeed, provider.NameStatsAPI},
		},
		{
			name: "span routes by its end season",
			tr:   stats.TimeRange{StartSeason: 2020, EndSeason: 2025},
			want: []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile},
		},
		{
			name: "gap season past the bulk file",
			tr:   stats.TimeRange{StartSeason: 2024},
			want: []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile},
		},
		{
			name: "span ending inside the bulk file",
			tr:   stats.TimeRange{StartSeason: 2019, EndSeason: 2022},
			want: []string{provider.NameBulkFile, provider.NameLiveFeed, provider.NameStatsAPI},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Plan(tt.tr); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan(%+v) = %v, want %v", tt.tr, got, tt.want)
			}
		})
	}
}

func TestRouter_PrimarySuccessSkipsFallbacks(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	api := serving(provider.NameStatsAPI)
	bulk := serving(provider.NameBulkFile)
	r := newTestRouter(t, live, api, bulk)

	res, err := r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != provider.NameLiveFeed {
		t.Errorf("Source = %q, want livefeed", res.Source)
	}
	if live.callCount() != 1 {
		t.Errorf("livefeed calls = %d, want 1", live.callCount())
	}
	if api.callCount() != 0 || bulk.callCount() != 0 {
		t.Errorf("fallbacks called: statsapi=%d bulkfile=%d", api.callCount(), bulk.callCount())
	}
}

func TestRouter_NotFoundAdvancesWithoutRetry(t *testing.T) {
	live := failing(provider.NameLiveFeed, provider.KindNotFound)
	api := serving(provider.NameStatsAPI)
	r := newTestRouter(t, live, api)

	res, err := r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != provider.NameStatsAPI {
		t.Errorf("Source = %q, want statsapi", res.Source)
	}
	// Empty answers are definitive: no retry budget spent.
	if live.callCount() != 1 {
		t.Errorf("livefeed calls = %d, want 1", live.callCount())
	}
}

func TestRouter_TransientRetriesThenAdvances(t *testing.T) {
	live := failing(provider.NameLiveFeed, provider.KindTransient)
	api := serving(provider.NameStatsAPI)
	r := newTestRouter(t, live, api)

	res, err := r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != provider.NameStatsAPI {
		t.Errorf("Source = %q, want statsapi", res.Source)
	}
	if live.callCount() != 3 {
		t.Errorf("livefeed calls = %d, want full retry budget of 3", live.callCount())
	}
	if api.callCount() != 1 {
		t.Errorf("statsapi calls = %d, want 1", api.callCount())
	}
}

func TestRouter_AllSourcesFail(t *testing.T) {
	live := failing(provider.NameLiveFeed, provider.KindTransient)
	api := failing(provider.NameStatsAPI, provider.KindNotFound)
	bulk := failing(provider.NameBulkFile, provider.KindInvalid)
	r := newTestRouter(t, live, api, bulk)

	_, err := r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("err = %v, want *ResolutionError", err)
	}
	if resErr.Player != "Derrick Henry" {
		t.Errorf("Player = %q", resErr.Player)
	}
	if len(resErr.Attempts) != 3 {
		t.Fatalf("attempts = %d, want one per source", len(resErr.Attempts))
	}
	wantOrder := []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile}
	for i, a := range resErr.Attempts {
		if a.Source != wantOrder[i] {
			t.Errorf("attempt %d source = %q, want %q", i, a.Source, wantOrder[i])
		}
	}
	if resErr.Attempts[0].Kind != provider.KindTransient ||
		resErr.Attempts[1].Kind != provider.KindNotFound ||
		resErr.Attempts[2].Kind != provider.KindInvalid {
		t.Errorf("attempt kinds = %+v", resErr.Attempts)
	}
}

func TestRouter_DisableFallbackStopsAfterPreferred(t *testing.T) {
	live := failing(provider.NameLiveFeed, provider.KindNotFound)
	api := serving(provider.NameStatsAPI)
	r, err := New(Config{
		Providers:       []provider.Provider{live, api},
		CurrentSeason:   2025,
		RetryDelay:      time.Millisecond,
		DisableFallback: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("err = %v, want *ResolutionError", err)
	}
	if len(resErr.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1 with fallback disabled", len(resErr.Attempts))
	}
	if api.callCount() != 0 {
		t.Errorf("statsapi called %d times with fallback disabled", api.callCount())
	}
}

func TestRouter_UnavailableSourceSkipped(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	live.unavailable = true
	api := serving(provider.NameStatsAPI)
	r := newTestRouter(t, live, api)

	res, err := r.Resolve(context.Background(), currentQuery("Derrick Henry"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != provider.NameStatsAPI {
		t.Errorf("Source = %q, want statsapi", res.Source)
	}
	if live.callCount() != 0 {
		t.Errorf("unavailable source fetched %d times", live.callCount())
	}
}

func TestRouter_CompositeCacheHit(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	r := newTestRouter(t, live)

	q := currentQuery("Derrick Henry")
	if _, err := r.Resolve(context.Background(), q); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if _, err := r.Resolve(context.Background(), q); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if live.callCount() != 1 {
		t.Errorf("livefeed calls = %d, want 1 (second resolve served from cache)", live.callCount())
	}
}

func TestRouter_NormalizedQueriesShareCache(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	r := newTestRouter(t, live)

	if _, err := r.Resolve(context.Background(), currentQuery("derrick henry")); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := r.Resolve(context.Background(), currentQuery("DERRICK HENRY")); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if live.callCount() != 1 {
		t.Errorf("livefeed calls = %d, want 1 (spelling variants share an entry)", live.callCount())
	}
}

func TestRouter_SourceCacheServesNewComposite(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	r := newTestRouter(t, live)

	q1 := currentQuery("Derrick Henry")
	q1.Stats = []string{"rushing_yards"}
	if _, err := r.Resolve(context.Background(), q1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Same player and range, different projection: new composite entry,
	// but the per-source rows are already cached.
	q2 := currentQuery("Derrick Henry")
	if _, err := r.Resolve(context.Background(), q2); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if live.callCount() != 1 {
		t.Errorf("livefeed calls = %d, want 1 (source tier reused)", live.callCount())
	}
}

func TestRouter_MultiPlayerPartialFailure(t *testing.T) {
	live := &fakeProvider{name: provider.NameLiveFeed}
	live.fetch = func(req provider.FetchRequest) (*stats.Result, error) {
		if req.Player == "Gone Missing" {
			return nil, provider.NewNotFound(provider.NameLiveFeed, "no rows")
		}
		return &stats.Result{Rows: rowsFor(req.Player, 88), Source: provider.NameLiveFeed}, nil
	}
	r := newTestRouter(t, live)

	res, err := r.Resolve(context.Background(), currentQuery("Derrick Henry", "Gone Missing"))
	if err != nil {
		t.Fatalf("Resolve with one resolvable player: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want the resolvable player's", len(res.Rows))
	}
	if res.Rows[0].String(stats.ColPlayerName) != "Derrick Henry" {
		t.Errorf("row player = %q", res.Rows[0].String(stats.ColPlayerName))
	}
}

func TestRouter_MultiPlayerAllFail(t *testing.T) {
	live := failing(provider.NameLiveFeed, provider.KindNotFound)
	r := newTestRouter(t, live)

	_, err := r.Resolve(context.Background(), currentQuery("Nobody Home", "Also Gone"))
	if err == nil {
		t.Fatal("expected error when every player fails")
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Errorf("err = %v, want joined resolution errors", err)
	}
}

func TestRouter_AggregationApplied(t *testing.T) {
	live := &fakeProvider{name: provider.NameLiveFeed}
	live.fetch = func(req provider.FetchRequest) (*stats.Result, error) {
		return &stats.Result{
			Rows: []stats.Row{
				{stats.ColPlayerName: req.Player, stats.ColSeason: 2025, stats.ColWeek: 1, "rushing_yards": float64(100)},
				{stats.ColPlayerName: req.Player, stats.ColSeason: 2025, stats.ColWeek: 2, "rushing_yards": float64(50)},
			},
			Source: provider.NameLiveFeed,
		}, nil
	}
	r := newTestRouter(t, live)

	q := currentQuery("Derrick Henry")
	q.Aggregation = stats.AggregationSum
	res, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 aggregated row", len(res.Rows))
	}
	if v, _ := res.Rows[0].Float("rushing_yards"); v != 150 {
		t.Errorf("summed rushing_yards = %v, want 150", v)
	}
}

func TestRouter_ResultsAreIsolatedCopies(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	r := newTestRouter(t, live)

	q := currentQuery("Derrick Henry")
	first, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	first.Rows[0]["rushing_yards"] = float64(0)

	second, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if v, _ := second.Rows[0].Float("rushing_yards"); v != 100 {
		t.Errorf("cached rows mutated through a returned result: %v", v)
	}
}

func TestRouter_NoPlayers(t *testing.T) {
	r := newTestRouter(t, serving(provider.NameLiveFeed))

	if _, err := r.Resolve(context.Background(), stats.Query{}); !errors.Is(err, ErrNoPlayers) {
		t.Errorf("err = %v, want ErrNoPlayers", err)
	}
}

func TestNew_RequiresProviders(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoProviders) {
		t.Errorf("err = %v, want ErrNoProviders", err)
	}
}

func TestInferSeason(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 2026},
	}
	for _, tt := range tests {
		if got := inferSeason(tt.now); got != tt.want {
			t.Errorf("inferSeason(%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestCaches_Maintenance(t *testing.T) {
	live := serving(provider.NameLiveFeed)
	r := newTestRouter(t, live)

	if _, err := r.Resolve(context.Background(), currentQuery("Derrick Henry")); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	caches := r.Caches()
	st := caches.Stats()
	if st.Query.Size != 1 || st.Provider.Size != 1 {
		t.Fatalf("sizes = query %d, provider %d; want 1 and 1", st.Query.Size, st.Provider.Size)
	}

	if removed := caches.InvalidatePlayer("derrick henry"); removed != 1 {
		t.Errorf("InvalidatePlayer removed %d, want 1", removed)
	}
	st = caches.Stats()
	if st.Query.Size != 0 || st.Provider.Size != 0 {
		t.Errorf("sizes after invalidate = query %d, provider %d", st.Query.Size, st.Provider.Size)
	}

	// A fresh resolve goes upstream again.
	if _, err := r.Resolve(context.Background(), currentQuery("Derrick Henry")); err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if live.callCount() != 2 {
		t.Errorf("livefeed calls = %d, want 2", live.callCount())
	}

	caches.ClearAll()
	st = caches.Stats()
	if st.Query.Size != 0 || st.Provider.Size != 0 {
		t.Errorf("sizes after ClearAll = query %d, provider %d", st.Query.Size, st.Provider.Size)
	}
}
