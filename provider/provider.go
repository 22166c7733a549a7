package provider

import (
	"context"
	"slices"
	"strings"

	"github.com/uttam-in/gridstats/stats"
)

// Canonical provider names, used in cache keys and failure reports.
const (
	NameBulkFile = "bulkfile"
	NameLiveFeed = "livefeed"
	NameStatsAPI = "statsapi"
)

// FetchRequest asks a provider for one player's rows in a time range.
// Fields optionally restricts the stat columns returned; identity
// columns are always included.
type FetchRequest struct {
	Player string          `json:"player"`
	Range  stats.TimeRange `json:"range"`
	Fields []string        `json:"fields,omitempty"`
}

// Provider is the capability interface every external data source
// implements.
//
// Contract:
// - Fetch must be idempotent: no side effects beyond the remote read,
//   safe to retry.
// - Fetch errors must be *Error values so callers can branch on Kind;
//   zero matching rows is KindNotFound, not an empty success.
// - Available is a cheap liveness probe with no guarantee that a
//   subsequent Fetch succeeds.
type Provider interface {
	// Name returns the provider's canonical name.
	Name() string

	// Fetch retrieves normalized rows for the request.
	Fetch(ctx context.Context, req FetchRequest) (*stats.Result, error)

	// Available reports whether the source is currently reachable.
	Available(ctx context.Context) bool
}

// identityColumns are always kept when a field projection is applied.
var identityColumns = []string{
	stats.ColPlayerName, stats.ColTeam, stats.ColPosition,
	stats.ColSeason, stats.ColWeek, stats.ColOpponent, stats.ColHomeAway,
}

// ProjectFields returns rows restricted to the requested stat columns
// plus the identity columns. An empty field list keeps everything.
func ProjectFields(rows []stats.Row, fields []string) []stats.Row {
	if len(fields) == 0 {
		return rows
	}
	out := make([]stats.Row, 0, len(rows))
	for _, row := range rows {
		pr := make(stats.Row, len(identityColumns)+len(fields))
		for _, col := range identityColumns {
			if v, ok := row[col]; ok {
				pr[col] = v
			}
		}
		for _, col := range fields {
			if v, ok := row[strings.ToLower(col)]; ok {
				pr[strings.ToLower(col)] = v
			}
		}
		out = append(out, pr)
	}
	return out
}

// matchPlayer reports whether a row belongs to the requested player.
func matchPlayer(row stats.Row, player string) bool {
	return strings.EqualFold(strings.TrimSpace(row.String(stats.ColPlayerName)), strings.TrimSpace(player))
}

// filterRows selects the rows matching a fetch request from an already
// normalized row set, applying the field projection.
func filterRows(rows []stats.Row, req FetchRequest) []stats.Row {
	matched := make([]stats.Row, 0)
	for _, row := range rows {
		if !matchPlayer(row, req.Player) {
			continue
		}
		if !req.Range.Matches(row.Int(stats.ColSeason), row.Int(stats.ColWeek)) {
			continue
		}
		matched = append(matched, row.Clone())
	}
	return ProjectFields(matched, slices.Clone(req.Fields))
}
