package stats

import "time"

// Row is a single tabular record keyed by normalized column name.
// Stat columns hold float64 values; identity columns (player_name, team,
// position, home_away, opponent) hold strings; season and week hold ints.
type Row map[string]any

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float reads a numeric column, coercing the common numeric types.
// Missing or non-numeric columns return (0, false).
func (r Row) Float(col string) (float64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// String reads a string column. Missing or non-string columns return "".
func (r Row) String(col string) string {
	if s, ok := r[col].(string); ok {
		return s
	}
	return ""
}

// Int reads an integer column, coercing float64 (JSON numbers decode as
// float64). Missing or non-numeric columns return 0.
func (r Row) Int(col string) int {
	switch n := r[col].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Result is a normalized tabular answer from one provider (or assembled
// across providers by the router). Callers own the value they receive;
// caches hold independent clones so caller mutation cannot corrupt
// cached state.
type Result struct {
	Rows      []Row     `json:"rows"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Clone returns a deep copy of the result.
func (res *Result) Clone() *Result {
	if res == nil {
		return nil
	}
	out := &Result{
		Source:    res.Source,
		FetchedAt: res.FetchedAt,
	}
	if res.Rows != nil {
		out.Rows = make([]Row, len(res.Rows))
		for i, row := range res.Rows {
			out.Rows[i] = row.Clone()
		}
	}
	return out
}

// Empty reports whether the result holds no rows.
func (res *Result) Empty() bool {
	return res == nil || len(res.Rows) == 0
}
