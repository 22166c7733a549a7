// Package provider defines the capability interface implemented by each
// external data source, the typed error taxonomy the router uses for
// retry-versus-fallback decisions, and the per-provider result cache.
//
// Three adapters are included: the bulk historical file, the live
// weekly feed, and the secondary stats API.
package provider
