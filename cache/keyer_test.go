package cache

import (
	"strings"
	"testing"

	"github.com/uttam-in/gridstats/stats"
)

func TestDefaultKeyer_Deterministic(t *testing.T) {
	k := NewDefaultKeyer()

	a := map[string]any{"players": []any{"A", "B"}, "season": 2023, "week": 4}
	b := map[string]any{"week": 4, "season": 2023, "players": []any{"A", "B"}}

	keyA, err := k.Key("query", a)
	if err != nil {
		t.Fatalf("Key(a) error: %v", err)
	}
	keyB, err := k.Key("query", b)
	if err != nil {
		t.Fatalf("Key(b) error: %v", err)
	}
	if keyA != keyB {
		t.Errorf("same parameters in different map order hashed differently: %q vs %q", keyA, keyB)
	}
	if !strings.HasPrefix(keyA, "query:") {
		t.Errorf("key %q missing namespace prefix", keyA)
	}
}

func TestDefaultKeyer_DistinguishesInputs(t *testing.T) {
	k := NewDefaultKeyer()

	keyA, _ := k.Key("query", map[string]any{"season": 2023})
	keyB, _ := k.Key("query", map[string]any{"season": 2024})
	if keyA == keyB {
		t.Error("different parameters produced the same key")
	}
}

// Normalized queries with identical semantics must share a composite
// key regardless of surface differences in the incoming request.
func TestDefaultKeyer_NormalizedQueriesShareKey(t *testing.T) {
	k := NewDefaultKeyer()

	q1 := stats.Query{
		Players:     []string{"Patrick Mahomes"},
		Stats:       []string{"Passing_Yards", "touchdowns"},
		Range:       stats.TimeRange{StartSeason: 2023},
		Aggregation: stats.AggregationSum,
	}
	q2 := stats.Query{
		Players:     []string{" patrick mahomes "},
		Stats:       []string{"touchdowns", "passing_yards"},
		Range:       stats.TimeRange{StartSeason: 2023, EndSeason: 2023},
		Aggregation: stats.AggregationSum,
	}

	key1, err := k.Key("query", q1.Normalize())
	if err != nil {
		t.Fatalf("Key(q1) error: %v", err)
	}
	key2, err := k.Key("query", q2.Normalize())
	if err != nil {
		t.Fatalf("Key(q2) error: %v", err)
	}
	if key1 != key2 {
		t.Errorf("semantically identical queries hashed differently: %q vs %q", key1, key2)
	}
}
