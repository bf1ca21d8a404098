// Package session pairs an origin and a destination autocomplete controller
// and computes the distance between the two selected places.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/autocomplete"
	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/geodesy"
	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Endpoint names accepted by Session.Endpoint.
const (
	EndpointOrigin      = "origin"
	EndpointDestination = "destination"
)

var (
	// ErrUnknownEndpoint is returned for an endpoint name other than origin or destination.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrIncomplete is returned by Distance until both endpoints have a selection.
	ErrIncomplete = errors.New("origin and destination must both be selected")
)

// Publisher receives each newly computed distance.
type Publisher interface {
	Publish(ctx context.Context, event domain.DistanceEvent) error
}

// Config holds what every session of a Manager shares.
type Config struct {
	Searcher      domain.PlaceSearcher
	Algorithm     geodesy.Algorithm
	Fallback      bool
	Debounce      time.Duration
	SearchTimeout time.Duration
	Capacity      int
	Clock         clockwork.Clock
	Publisher     Publisher // optional
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// Result is a computed distance between the two selected places.
type Result struct {
	Origin            domain.PlaceCandidate `json:"origin"`
	Destination       domain.PlaceCandidate `json:"destination"`
	Algorithm         geodesy.Algorithm     `json:"algorithm"`
	Kilometers        float64               `json:"kilometers"`
	RoundedKilometers float64               `json:"rounded_kilometers"`
	Fallback          bool                  `json:"fallback"`
}

// View is a snapshot of both endpoints and, when available, their distance.
type View struct {
	ID            string             `json:"id"`
	Origin        autocomplete.State `json:"origin"`
	Destination   autocomplete.State `json:"destination"`
	Distance      *Result            `json:"distance,omitempty"`
	DistanceError string             `json:"distance_error,omitempty"`
}

// Session is one origin/destination pair.
type Session struct {
	id          string
	origin      *autocomplete.Controller
	destination *autocomplete.Controller
	calc        geodesy.Calculator
	fallback    bool
	clock       clockwork.Clock
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu        sync.Mutex
	published map[string]struct{}
}

func newSession(cfg Config) *Session {
	id := uuid.NewString()
	opts := autocomplete.Options{
		Clock:         cfg.Clock,
		Debounce:      cfg.Debounce,
		SearchTimeout: cfg.SearchTimeout,
		Logger:        cfg.Logger.With("session_id", id),
		Metrics:       cfg.Metrics,
	}
	return &Session{
		id:          id,
		origin:      autocomplete.New(cfg.Searcher, opts),
		destination: autocomplete.New(cfg.Searcher, opts),
		calc:        geodesy.NewCalculator(cfg.Algorithm),
		fallback:    cfg.Fallback,
		clock:       cfg.Clock,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger.With("session_id", id),
		metrics:     cfg.Metrics,
		published:   make(map[string]struct{}),
	}
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Endpoint returns the controller for name.
func (s *Session) Endpoint(name string) (*autocomplete.Controller, error) {
	switch name {
	case EndpointOrigin:
		return s.origin, nil
	case EndpointDestination:
		return s.destination, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
}

// Distance computes the distance between the selected origin and destination.
func (s *Session) Distance(ctx context.Context) (Result, error) {
	from, ok := s.origin.Selected()
	if !ok {
		return Result{}, ErrIncomplete
	}
	to, ok := s.destination.Selected()
	if !ok {
		return Result{}, ErrIncomplete
	}

	alg := s.calc.Algorithm()
	km, err := s.calc.Distance(from.Location, to.Location)
	fallback := false
	if errors.Is(err, geodesy.ErrConvergence) && s.fallback && alg != geodesy.Haversine {
		s.logger.Warn("vincenty did not converge, using haversine",
			"origin", from.Label, "destination", to.Label)
		alg, km, err, fallback = geodesy.Haversine, geodesy.HaversineKm(from.Location, to.Location), nil, true
	}
	if err != nil {
		s.metrics.DistanceCalculations.WithLabelValues(alg.String(), "error").Inc()
		return Result{}, fmt.Errorf("distance %s to %s: %w", from.Label, to.Label, err)
	}

	outcome := "success"
	if fallback {
		outcome = "fallback"
	}
	s.metrics.DistanceCalculations.WithLabelValues(s.calc.Algorithm().String(), outcome).Inc()

	res := Result{
		Origin:            from,
		Destination:       to,
		Algorithm:         alg,
		Kilometers:        km,
		RoundedKilometers: geodesy.RoundToNearest(km, geodesy.DefaultRoundingStep),
		Fallback:          fallback,
	}
	s.publish(ctx, res)
	return res, nil
}

// View returns both endpoint states plus the distance once both are selected.
func (s *Session) View(ctx context.Context) View {
	v := View{
		ID:          s.id,
		Origin:      s.origin.State(),
		Destination: s.destination.State(),
	}
	res, err := s.Distance(ctx)
	switch {
	case err == nil:
		v.Distance = &res
	case !errors.Is(err, ErrIncomplete):
		v.DistanceError = err.Error()
	}
	return v
}

// Close stops both controllers. Pending debounce timers are cancelled.
func (s *Session) Close() {
	s.origin.Close()
	s.destination.Close()
}

// publish sends res once per distinct pair for the session's lifetime.
// Failures are logged and retried on the next calculation of the same pair.
func (s *Session) publish(ctx context.Context, res Result) {
	if s.publisher == nil {
		return
	}
	key := fmt.Sprintf("%s|%v|%s|%v|%s",
		res.Origin.Label, res.Origin.Location, res.Destination.Label, res.Destination.Location, res.Algorithm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.published[key]; ok {
		return
	}

	event := domain.DistanceEvent{
		SessionID:         s.id,
		Origin:            res.Origin,
		Destination:       res.Destination,
		Algorithm:         res.Algorithm.String(),
		Kilometers:        res.Kilometers,
		RoundedKilometers: res.RoundedKilometers,
		Fallback:          res.Fallback,
		ComputedAt:        s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish distance event", "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
	s.published[key] = struct{}{}
}
