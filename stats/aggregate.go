package stats

import (
	"sort"
	"strings"
)

// defaultGroupBy matches the grouping the original pipeline used when
// combining per-game rows into one row per player.
var defaultGroupBy = []string{ColPlayerName, ColTeam, ColPosition}

// Aggregate combines rows sharing the same group-by columns using the
// given aggregation over every stat column. AggregationNone and empty
// input return the rows unchanged. groupBy defaults to player, team,
// and position; columns absent from the rows are ignored.
func Aggregate(rows []Row, agg Aggregation, groupBy []string) []Row {
	if agg == AggregationNone || len(rows) == 0 {
		return rows
	}
	if len(groupBy) == 0 {
		groupBy = defaultGroupBy
	}

	type bucket struct {
		row    Row
		counts map[string]int
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, row := range rows {
		key := groupKey(row, groupBy)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{row: make(Row), counts: make(map[string]int)}
			for _, col := range groupBy {
				if v, present := row[col]; present {
					b.row[col] = v
				}
			}
			buckets[key] = b
			order = append(order, key)
		}
		for col, v := range row {
			if !IsStatColumn(col, v) {
				continue
			}
			val, _ := row.Float(col)
			cur, seen := b.row.Float(col)
			if !seen {
				b.row[col] = val
				b.counts[col] = 1
				continue
			}
			switch agg {
			case AggregationSum, AggregationAvg:
				b.row[col] = cur + val
			case AggregationMax:
				if val > cur {
					b.row[col] = val
				}
			case AggregationMin:
				if val < cur {
					b.row[col] = val
				}
			}
			b.counts[col]++
		}
	}

	out := make([]Row, 0, len(buckets))
	for _, key := range order {
		b := buckets[key]
		if agg == AggregationAvg {
			for col, n := range b.counts {
				if n > 1 {
					v, _ := b.row.Float(col)
					b.row[col] = v / float64(n)
				}
			}
		}
		out = append(out, b.row)
	}
	return out
}

func groupKey(row Row, groupBy []string) string {
	parts := make([]string, 0, len(groupBy))
	for _, col := range groupBy {
		parts = append(parts, strings.ToLower(row.String(col)))
	}
	return strings.Join(parts, "\x1f")
}

// SortRows orders rows by player name, then season, then week, giving
// assembled multi-provider results a stable presentation order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if a, b := rows[i].String(ColPlayerName), rows[j].String(ColPlayerName); a != b {
			return a < b
		}
		if a, b := rows[i].Int(ColSeason), rows[j].Int(ColSeason); a != b {
			return a < b
		}
		return rows[i].Int(ColWeek) < rows[j].Int(ColWeek)
	})
}
