// Package router resolves stat queries through tiered caches and ranked
// upstream sources.
//
// A resolution checks the composite query cache first, then resolves each
// player through the source order its time range implies: current-season
// queries prefer the live feed, historical queries prefer the bulk file,
// and anything between falls back through every source. Each source
// attempt is retried with backoff on transient failures before the next
// source is tried. Fresh results populate both the per-source cache and
// the composite cache.
package router
