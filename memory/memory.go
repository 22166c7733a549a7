package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uttam-in/gridstats/stats"
)

const (
	// DefaultMaxTurns is the rolling window size for conversation history.
	DefaultMaxTurns = 10

	// DefaultContextTurns is how many recent turns Context aggregates.
	DefaultContextTurns = 3
)

// Turn is one query/response exchange with its extracted entities.
type Turn struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Players   []string  `json:"players,omitempty"`
	Stats     []string  `json:"stats,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Context aggregates entities from the most recent turns so follow-up
// queries can resolve references.
type Context struct {
	RecentPlayers []string
	RecentStats   []string
	RecentQueries []string
	LastResponse  string
	TurnCount     int
}

// Summary describes the whole history, for status surfaces and debugging.
type Summary struct {
	TurnCount     int
	TotalPlayers  int
	TotalStats    int
	UniquePlayers []string
	UniqueStats   []string
	Oldest        time.Time
	Newest        time.Time
}

// Memory holds a bounded conversation history for one session.
type Memory struct {
	mu       sync.Mutex
	id       string
	maxTurns int
	turns    []Turn
	now      func() time.Time
}

// Option configures a Memory.
type Option func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates an empty session memory. A maxTurns of zero or less uses
// DefaultMaxTurns.
func New(maxTurns int, opts ...Option) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	m := &Memory{
		id:       uuid.NewString(),
		maxTurns: maxTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the session identifier.
func (m *Memory) ID() string { return m.id }

// Record appends a turn for the given exchange, extracting entities from
// both sides of the conversation. Entities already present on parsed take
// precedence over text extraction. Empty exchanges are skipped and the
// second return is false.
func (m *Memory) Record(query, response string, parsed *stats.Query) (Turn, bool) {
	if query == "" || response == "" {
		return Turn{}, false
	}

	var knownPlayers, knownStats []string
	if parsed != nil {
		knownPlayers = parsed.Players
		knownStats = parsed.Stats
	}

	players := ExtractPlayers(query, knownPlayers)
	players = ExtractPlayers(response, players)
	statNames := ExtractStats(query, knownStats)
	statNames = ExtractStats(response, statNames)

	turn := Turn{
		Query:     query,
		Response:  response,
		Players:   players,
		Stats:     statNames,
		Timestamp: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
	return turn, true
}

// Turns returns a copy of the history, oldest first.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of stored turns.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Context aggregates entities from the last maxTurns turns. A maxTurns
// of zero or less uses DefaultContextTurns. Entity order is first
// mention within the window.
func (m *Memory) Context(maxTurns int) Context {
	if maxTurns <= 0 {
		maxTurns = DefaultContextTurns
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := Context{TurnCount: len(m.turns)}
	if len(m.turns) == 0 {
		return ctx
	}

	start := len(m.turns) - maxTurns
	if start < 0 {
		start = 0
	}

	seenPlayers := make(map[string]bool)
	seenStats := make(map[string]bool)
	for _, turn := range m.turns[start:] {
		for _, p := range turn.Players {
			if !seenPlayers[p] {
				ctx.RecentPlayers = append(ctx.RecentPlayers, p)
				seenPlayers[p] = true
			}
		}
		for _, s := range turn.Stats {
			if !seenStats[s] {
				ctx.RecentStats = append(ctx.RecentStats, s)
				seenStats[s] = true
			}
		}
		ctx.RecentQueries = append(ctx.RecentQueries, turn.Query)
	}

	ctx.LastResponse = m.turns[len(m.turns)-1].Response
	return ctx
}

// Summarize reports aggregate history statistics.
func (m *Memory) Summarize() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{TurnCount: len(m.turns)}
	if len(m.turns) == 0 {
		return s
	}

	seenPlayers := make(map[string]bool)
	seenStats := make(map[string]bool)
	for _, turn := range m.turns {
		s.TotalPlayers += len(turn.Players)
		s.TotalStats += len(turn.Stats)
		for _, p := range turn.Players {
			if !seenPlayers[p] {
				s.UniquePlayers = append(s.UniquePlayers, p)
				seenPlayers[p] = true
			}
		}
		for _, st := range turn.Stats {
			if !seenStats[st] {
				s.UniqueStats = append(s.UniqueStats, st)
				seenStats[st] = true
			}
		}
	}
	s.Oldest = m.turns[0].Timestamp
	s.Newest = m.turns[len(m.turns)-1].Timestamp
	return s
}

// Clear drops the history, keeping the session ID.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
