package autocomplete

import (
	"slices"

	"github.com/couchcryptid/city-distance-service/internal/domain"
)

// Kind identifies the controller's current state.
type Kind int

const (
	Idle Kind = iota
	Debouncing
	Loading
	Ready
	Error
	Selected
)

var kindNames = [...]string{
	Idle:       "idle",
	Debouncing: "debouncing",
	Loading:    "loading",
	Ready:      "ready",
	Error:      "error",
	Selected:   "selected",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText renders the kind by name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is an immutable snapshot of a controller.
type State struct {
	Kind Kind `json:"state"`
	// Input is the current text of the input box.
	Input string `json:"input"`
	// Candidates is set in Ready.
	Candidates []domain.PlaceCandidate `json:"candidates"`
	// Message is set in Error.
	Message string `json:"message,omitempty"`
	// Selection is set in Selected.
	Selection *domain.PlaceCandidate `json:"selection,omitempty"`
	// SuggestionsVisible is a presentation flag; Dismiss and Focus toggle it
	// without changing Kind.
	SuggestionsVisible bool `json:"suggestions_visible"`
}

func (s State) clone() State {
	out := s
	out.Candidates = slices.Clone(s.Candidates)
	if out.Candidates == nil {
		out.Candidates = []domain.PlaceCandidate{}
	}
	if s.Selection != nil {
		sel := *s.Selection
		out.Selection = &sel
	}
	return out
}
