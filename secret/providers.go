package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves references against the process environment.
// The ref is the variable name, e.g. secretref:env:GRIDSTATS_API_KEY.
type EnvProvider struct{}

// Name returns the provider name.
func (EnvProvider) Name() string { return "env" }

// Resolve reads the named environment variable.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	val, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", ref)
	}
	return val, nil
}

// FileProvider resolves references by reading file contents.
// The ref is a path, e.g. secretref:file:/run/secrets/statsapi_key.
// Trailing whitespace is trimmed so newline-terminated secret files work.
type FileProvider struct{}

// Name returns the provider name.
func (FileProvider) Name() string { return "file" }

// Resolve reads the file at ref.
func (FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("reading secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
