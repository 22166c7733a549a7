package stats

import "strings"

// ApplyFilters returns the rows that satisfy every set filter. String
// filters match case-insensitively; value bounds apply to every stat
// column in the row, so a row survives MinValue only if all of its stat
// columns meet the bound (mirrors bounding a single requested stat).
func ApplyFilters(rows []Row, f Filters) []Row {
	if f.IsZero() {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !matchesFilters(row, f) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesFilters(row Row, f Filters) bool {
	if f.Opponent != "" {
		opp := row.String(ColOpponent)
		if opp == "" || !strings.Contains(strings.ToLower(opp), strings.ToLower(f.Opponent)) {
			return false
		}
	}
	if f.HomeAway != "" {
		if !strings.EqualFold(row.String(ColHomeAway), f.HomeAway) {
			return false
		}
	}
	for col, v := range row {
		if !IsStatColumn(col, v) {
			continue
		}
		val, _ := row.Float(col)
		if f.MinValue != nil && val < *f.MinValue {
			return false
		}
		if f.MaxValue != nil && val > *f.MaxValue {
			return false
		}
	}
	return true
}
