package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/uttam-in/gridstats/provider"
)

// Sentinel errors for resolution.
var (
	// ErrNoPlayers is returned when a query names no players.
	ErrNoPlayers = errors.New("router: query names no players")

	// ErrNoProviders is returned when a router is built without sources.
	ErrNoProviders = errors.New("router: no providers configured")
)

// Attempt records the outcome of trying one source for one player.
type Attempt struct {
	Source string
	Kind   provider.Kind
	Err    error
}

// ResolutionError reports that every source in the fallback chain failed
// for a player, with the per-source outcomes.
type ResolutionError struct {
	Player   string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "router: all sources failed for %q", e.Player)
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s (%s): %v", a.Source, a.Kind, a.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying source errors to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
