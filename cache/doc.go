// Package cache provides the bounded, TTL-aware entry stores backing
// every cache tier: a plain TTL map store, an access-ordered LRU store,
// and a deterministic keyer for hashing normalized queries.
//
// A miss is a normal return value, never an error. Expired entries are
// removed lazily on Get; SweepExpired exists for periodic amortized
// cleanup and never blocks readers for long.
package cache
