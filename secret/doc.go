// Package secret provides a small, dependency-light secret resolution layer.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:GRIDSTATS_API_KEY
//   - Inline use:  Bearer secretref:file:/run/secrets/statsapi_key
//
// The env and file providers cover the common cases: API keys handed in
// through the environment or mounted as files by an orchestrator.
package secret
