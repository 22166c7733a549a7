package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/uttam-in/gridstats/stats"
)

func TestStatsAPI_Fetch(t *testing.T) {
	var (
		mu      sync.Mutex
		gotKey  string
		gotName string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athletes/statistics" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		gotKey = r.Header.Get("X-Api-Key")
		gotName = r.URL.Query().Get("name")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"athletes": [
			{"player_name": "Lamar Jackson", "season": 2024, "week": 5, "passing_yards": "280", "rushing_yards": 54}
		]}`))
	}))
	defer srv.Close()

	p := NewStatsAPI(StatsAPIConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 100,
	})
	res, err := p.Fetch(context.Background(), FetchRequest{
		Player: "lamar jackson",
		Range:  stats.TimeRange{StartSeason: 2024},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	// Normalization coerces numeric strings in the envelope.
	if v, _ := res.Rows[0].Float("passing_yards"); v != 280 {
		t.Errorf("passing_yards = %v, want 280", v)
	}
	if res.Source != NameStatsAPI {
		t.Errorf("Source = %q", res.Source)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotKey != "test-key" {
		t.Errorf("X-Api-Key = %q", gotKey)
	}
	if gotName != "Lamar Jackson" {
		t.Errorf("name param = %q", gotName)
	}
}

func TestStatsAPI_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"unauthorized is invalid", http.StatusUnauthorized, KindInvalid},
		{"throttled is transient", http.StatusTooManyRequests, KindTransient},
		{"unknown athlete is not found", http.StatusNotFound, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewStatsAPI(StatsAPIConfig{BaseURL: srv.URL, RequestsPerSecond: 100})
			_, err := p.Fetch(context.Background(), FetchRequest{Player: "Anyone"})
			var pe *Error
			if !errors.As(err, &pe) || pe.Kind != tt.want {
				t.Errorf("err = %v, want kind %q", err, tt.want)
			}
		})
	}
}

func TestStatsAPI_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"athletes": [{"player_name": "A", "season": 2024}]}`))
	}))
	defer srv.Close()

	// One request per ten seconds with burst 1: the second call must wait,
	// and a cancelled context aborts that wait with a transient error.
	p := NewStatsAPI(StatsAPIConfig{BaseURL: srv.URL, RequestsPerSecond: 0.1})
	if _, err := p.Fetch(context.Background(), FetchRequest{Player: "A"}); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Fetch(ctx, FetchRequest{Player: "A"})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindTransient {
		t.Errorf("err = %v, want KindTransient from aborted limiter wait", err)
	}
}

func TestStatsAPI_FetchUnconfigured(t *testing.T) {
	p := NewStatsAPI(StatsAPIConfig{})
	_, err := p.Fetch(context.Background(), FetchRequest{Player: "Anyone"})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInvalid {
		t.Errorf("err = %v, want KindInvalid without a base URL", err)
	}
}

func TestStatsAPI_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewStatsAPI(StatsAPIConfig{BaseURL: srv.URL})
	if !p.Available(context.Background()) {
		t.Error("Available = false for healthy API")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	q := NewStatsAPI(StatsAPIConfig{BaseURL: down.URL})
	if q.Available(context.Background()) {
		t.Error("Available = true for API returning 503")
	}
}
