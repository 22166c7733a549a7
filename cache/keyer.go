package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Keyer generates deterministic cache keys from structured parameters.
//
// Contract:
// - Determinism: semantically identical inputs must produce the same
//   key regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for the given namespace and input.
	Key(namespace string, input any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys over a canonical JSON
// encoding of the input. Structs encode with fixed field order; maps are
// re-encoded with sorted keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: <namespace>:<hash> where hash is the first 16 hex characters
// of SHA-256(canonical JSON(input)).
func (k *DefaultKeyer) Key(namespace string, input any) (string, error) {
	canonical, err := canonicalize(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s", namespace, hex.EncodeToString(hash[:8])), nil
}

// canonicalize produces a deterministic JSON representation of the
// input. Maps are sorted by key; other values round-trip through the
// JSON encoder so that equivalent inputs of different concrete types
// (e.g. int vs float64 from decoding) hash identically.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		// Structs may nest maps; normalize through a decode pass.
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
		if m, ok := decoded.(map[string]any); ok {
			return canonicalizeMap(m)
		}
		if s, ok := decoded.([]any); ok {
			return canonicalizeSlice(s)
		}
		return raw, nil
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
