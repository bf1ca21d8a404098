package domain

import "time"

// DistanceEvent records one distance computed for a session. It is the
// payload published to the event topic.
type DistanceEvent struct {
	SessionID         string         `json:"session_id"`
	Origin            PlaceCandidate `json:"origin"`
	Destination       PlaceCandidate `json:"destination"`
	Algorithm         string         `json:"algorithm"`
	Kilometers        float64        `json:"kilometers"`
	RoundedKilometers float64        `json:"rounded_kilometers"`
	Fallback          bool           `json:"fallback,omitempty"`
	ComputedAt        time.Time      `json:"computed_at"`
}
