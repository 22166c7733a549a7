package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// dollarSentinel temporarily replaces `$$` so os.ExpandEnv does not
// treat the escaped dollar as a variable start.
const dollarSentinel = "\x00GRIDSTATS_DOLLAR\x00"

// ExpandEnvStrict expands `$VAR` and `${VAR}` in s. Unlike
// os.ExpandEnv, a `${VAR}` whose variable is unset is an error rather
// than an empty string, so a missing API key fails loudly at startup
// instead of producing an unauthenticated client. `$$` escapes a
// literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	seen := make(map[string]bool)
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		key := match[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := os.LookupEnv(key); !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
