// Package dataset holds the bulk historical dataset in memory: loaded
// at most once per Warm regardless of concurrent callers, read through
// an atomic snapshot so readers never observe a half-replaced dataset,
// and replaced wholesale only by Refresh.
package dataset
