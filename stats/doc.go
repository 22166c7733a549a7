// Package stats defines the domain model for player statistics queries
// and results: time ranges, query specifications, tabular rows, and the
// post-processing steps (normalization, filtering, aggregation) applied
// to rows regardless of which provider produced them.
package stats
