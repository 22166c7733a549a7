package stats

import (
	"strconv"
	"strings"
)

// Canonical column names shared by every provider after normalization.
const (
	ColPlayerName = "player_name"
	ColTeam       = "team"
	ColPosition   = "position"
	ColSeason     = "season"
	ColWeek       = "week"
	ColOpponent   = "opponent"
	ColHomeAway   = "home_away"
)

// columnAliases maps source-specific column names onto canonical names.
var columnAliases = map[string]string{
	"player":   ColPlayerName,
	"year":     ColSeason,
	"tm":       ColTeam,
	"pos":      ColPosition,
	"opp":      ColOpponent,
	"pass_yds": "passing_yards",
	"pass_td":  "passing_touchdowns",
	"rush_yds": "rushing_yards",
	"rush_td":  "rushing_touchdowns",
	"rec_yds":  "receiving_yards",
	"rec_td":   "receiving_touchdowns",
	"rec":      "receptions",
	"tgt":      "targets",
	"att":      "attempts",
	"cmp":      "completions",
	"int":      "interceptions",
}

// statColumns are the numeric stat columns coerced to float64 and
// zero-filled when absent from a source.
var statColumns = []string{
	"passing_yards", "passing_touchdowns", "completions", "attempts",
	"interceptions", "rushing_yards", "rushing_touchdowns", "rushing_attempts",
	"receiving_yards", "receiving_touchdowns", "receptions", "targets",
	"games_played",
}

// nonStatNumeric are numeric columns excluded from value filters and
// aggregation (identity, not performance).
var nonStatNumeric = map[string]bool{
	ColSeason:      true,
	ColWeek:        true,
	"games_played": true,
}

// coerceFloat converts numeric values and numeric strings to float64.
// Unparseable values become zero, matching the original pipeline's
// to-numeric-then-zero-fill behavior.
func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// NormalizeRows rewrites rows from any provider into the canonical
// shape: aliased column names are renamed, present stat columns are
// coerced to float64 (unparseable values become zero), and season/week
// become ints. The input slice is not modified.
func NormalizeRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		nr := make(Row, len(row))
		for k, v := range row {
			if canonical, ok := columnAliases[k]; ok {
				k = canonical
			}
			nr[k] = v
		}
		for _, col := range statColumns {
			if v, present := nr[col]; present {
				nr[col] = coerceFloat(v)
			}
		}
		if v, present := nr[ColSeason]; present {
			nr[ColSeason] = int(coerceFloat(v))
		}
		if v, present := nr[ColWeek]; present {
			nr[ColWeek] = int(coerceFloat(v))
		}
		out = append(out, nr)
	}
	return out
}

// IsStatColumn reports whether col is a performance stat column subject
// to value filters and aggregation.
func IsStatColumn(col string, v any) bool {
	if nonStatNumeric[col] {
		return false
	}
	switch v.(type) {
	case float64, float32, int, int64:
		return !nonStatNumeric[col]
	default:
		return false
	}
}
