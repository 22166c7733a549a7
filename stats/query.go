package stats

import (
	"sort"
	"strings"
	"unicode"
)

// Aggregation selects how rows are combined across games.
type Aggregation string

const (
	AggregationNone Aggregation = ""
	AggregationSum  Aggregation = "sum"
	AggregationAvg  Aggregation = "avg"
	AggregationMax  Aggregation = "max"
	AggregationMin  Aggregation = "min"
)

// ParseAggregation maps user-facing aggregation names to an Aggregation.
// Unrecognized names fall back to AggregationNone.
func ParseAggregation(s string) Aggregation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "total":
		return AggregationSum
	case "avg", "average", "mean":
		return AggregationAvg
	case "max", "maximum":
		return AggregationMax
	case "min", "minimum":
		return AggregationMin
	default:
		return AggregationNone
	}
}

// TimeRange bounds a query to a span of seasons and optionally a single
// week. Zero values mean unspecified: a zero StartSeason/EndSeason spans
// all seasons, a zero Week spans all weeks of the matched seasons.
type TimeRange struct {
	StartSeason int `json:"start_season"`
	EndSeason   int `json:"end_season"`
	Week        int `json:"week"`
}

// IsZero reports whether no bounds were specified at all.
func (r TimeRange) IsZero() bool {
	return r.StartSeason == 0 && r.EndSeason == 0 && r.Week == 0
}

// Normalized returns the range with a consistent orientation: a single
// specified season fills both ends, and reversed ends are swapped.
func (r TimeRange) Normalized() TimeRange {
	out := r
	if out.StartSeason == 0 {
		out.StartSeason = out.EndSeason
	}
	if out.EndSeason == 0 {
		out.EndSeason = out.StartSeason
	}
	if out.StartSeason > out.EndSeason && out.EndSeason != 0 {
		out.StartSeason, out.EndSeason = out.EndSeason, out.StartSeason
	}
	return out
}

// Matches reports whether a row's season and week fall inside the range.
func (r TimeRange) Matches(season, week int) bool {
	n := r.Normalized()
	if n.StartSeason != 0 && season < n.StartSeason {
		return false
	}
	if n.EndSeason != 0 && season > n.EndSeason {
		return false
	}
	if n.Week != 0 && week != n.Week {
		return false
	}
	return true
}

// Filters restricts which rows a query returns. Opponent and HomeAway
// match string columns; MinValue and MaxValue bound every stat column.
type Filters struct {
	Opponent string   `json:"opponent,omitempty"`
	HomeAway string   `json:"home_away,omitempty"`
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
}

// IsZero reports whether no filters are set.
func (f Filters) IsZero() bool {
	return f.Opponent == "" && f.HomeAway == "" && f.MinValue == nil && f.MaxValue == nil
}

// Query is a fully structured lookup request, produced by the external
// query-interpretation step. Semantically identical queries must compare
// equal after Normalize so cached results can be shared between them.
type Query struct {
	Players     []string    `json:"players"`
	Stats       []string    `json:"stats,omitempty"`
	Range       TimeRange   `json:"range"`
	Filters     Filters     `json:"filters"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
}

// Normalize returns a canonical copy of the query: player names are
// trimmed, title-cased, and deduplicated case-insensitively, stat names
// are lowered, sorted, and deduplicated, and the time range is
// normalized. Player order is preserved so response ordering follows
// the question; stats form an unordered set and are sorted for stable
// hashing.
func (q Query) Normalize() Query {
	out := q
	out.Players = dedupeStrings(q.Players, false)
	for i, p := range out.Players {
		out.Players[i] = TitleCase(p)
	}
	out.Stats = dedupeStrings(q.Stats, true)
	sort.Strings(out.Stats)
	out.Range = q.Range.Normalized()
	out.Filters.Opponent = strings.TrimSpace(q.Filters.Opponent)
	out.Filters.HomeAway = strings.ToLower(strings.TrimSpace(q.Filters.HomeAway))
	return out
}

// TitleCase normalizes a player name for consistent lookups: trimmed,
// single-spaced, each word capitalized.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func dedupeStrings(in []string, lower bool) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
