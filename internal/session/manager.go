package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultCapacity bounds the number of live sessions.
const DefaultCapacity = 1000

// ErrSessionNotFound is returned for an unknown or evicted session ID.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions.
type Manager struct {
	cfg   Config
	store *store
}

// NewManager creates a Manager. Missing clock, logger, and metrics take defaults.
func NewManager(cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetricsForTesting()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Manager{cfg: cfg, store: newStore(cfg.Capacity)}
}

// Create starts a new session with two idle endpoints.
func (m *Manager) Create() *Session {
	s := newSession(m.cfg)
	if evicted := m.store.put(s.ID(), s); evicted != nil {
		evicted.Close()
		m.cfg.Logger.Info("session evicted", "session_id", evicted.ID())
	}
	m.cfg.Metrics.SessionsActive.Set(float64(m.store.len()))
	m.cfg.Logger.Debug("session created", "session_id", s.ID())
	return s
}

// Get looks a session up and marks it recently used.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.store.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id string) error {
	s, ok := m.store.delete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	m.cfg.Metrics.SessionsActive.Set(float64(m.store.len()))
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int { return m.store.len() }

// Close closes every session. Used on shutdown.
func (m *Manager) Close() {
	for _, s := range m.store.drain() {
		s.Close()
	}
	m.cfg.Metrics.SessionsActive.Set(0)
}

// CheckReadiness reports whether sessions can be served.
func (m *Manager) CheckReadiness(_ context.Context) error {
	if m.cfg.Searcher == nil {
		return errors.New("place searcher not configured")
	}
	return nil
}
