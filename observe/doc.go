// Package observe provides structured logging, metrics, and tracing for
// the stat resolution pipeline.
//
// The Observer bundles the three telemetry primitives behind one
// configuration surface so callers enable only what they need. Metrics
// cover cache lookups per tier, upstream fetch attempts per source, and
// end-to-end resolve latency. Log fields carrying credentials are
// redacted before serialization.
package observe
