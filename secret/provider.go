package secret

import "context"

// Provider turns an opaque reference into a secret value. A provider
// owns one scheme, e.g. env or file.
//
// Implementations must be safe for concurrent use and must never log
// resolved values.
type Provider interface {
	// Name is the scheme this provider handles.
	Name() string

	// Resolve returns the secret the reference points at.
	Resolve(ctx context.Context, ref string) (string, error)
}
