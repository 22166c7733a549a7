package memory

import (
	"regexp"
	"strings"
)

// namePattern matches First Last or First Middle Last capitalized runs.
// A heuristic, not NER: filtered through falsePositives below.
var namePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)

// falsePositives are capitalized phrases that look like names but aren't.
var falsePositives = map[string]bool{
	"The System":      true,
	"The Player":      true,
	"The Team":        true,
	"The Game":        true,
	"Expected Points": true,
	"Points Added":    true,
	"Red Zone":        true,
	"The Season":      true,
	"The Week":        true,
	"The League":      true,
	"The NFL":         true,
	"The Stats":       true,
}

// statKeywords maps spoken stat phrases to canonical column names.
// Ordered so extraction output is deterministic.
var statKeywords = []struct {
	keyword string
	stat    string
}{
	{"yards", "yards"},
	{"passing yards", "passing_yards"},
	{"rushing yards", "rushing_yards"},
	{"receiving yards", "receiving_yards"},
	{"touchdowns", "touchdowns"},
	{"tds", "touchdowns"},
	{"completions", "completions"},
	{"attempts", "attempts"},
	{"completion rate", "completion_rate"},
	{"completion percentage", "completion_rate"},
	{"interceptions", "interceptions"},
	{"picks", "interceptions"},
	{"receptions", "receptions"},
	{"catches", "receptions"},
	{"targets", "targets"},
	{"epa", "epa"},
	{"expected points", "epa"},
	{"yards per attempt", "yards_per_attempt"},
	{"yards per reception", "yards_per_reception"},
	{"yards per carry", "yards_per_carry"},
	{"sacks", "sacks"},
}

// ExtractPlayers finds player names mentioned in text. Names from known
// come first and are never duplicated.
func ExtractPlayers(text string, known []string) []string {
	players := make([]string, 0, len(known))
	seen := make(map[string]bool, len(known))
	for _, p := range known {
		if p != "" && !seen[p] {
			players = append(players, p)
			seen[p] = true
		}
	}

	for _, name := range namePattern.FindAllString(text, -1) {
		if falsePositives[name] || seen[name] {
			continue
		}
		players = append(players, name)
		seen[name] = true
	}
	return players
}

// ExtractStats finds stat categories mentioned in text. Categories from
// known come first and are never duplicated.
func ExtractStats(text string, known []string) []string {
	stats := make([]string, 0, len(known))
	seen := make(map[string]bool, len(known))
	for _, s := range known {
		if s != "" && !seen[s] {
			stats = append(stats, s)
			seen[s] = true
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range statKeywords {
		if seen[kw.stat] || !strings.Contains(lower, kw.keyword) {
			continue
		}
		stats = append(stats, kw.stat)
		seen[kw.stat] = true
	}
	return stats
}
