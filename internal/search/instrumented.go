package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/observability"
)

// InstrumentedSearcher records provider outcomes and latency.
type InstrumentedSearcher struct {
	inner    domain.PlaceSearcher
	provider string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewInstrumented wraps inner with metrics and failure logging.
func NewInstrumented(inner domain.PlaceSearcher, provider string, metrics *observability.Metrics, logger *slog.Logger) *InstrumentedSearcher {
	return &InstrumentedSearcher{
		inner:    inner,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *InstrumentedSearcher) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	if domain.IsBlankQuery(query) {
		return []domain.PlaceCandidate{}, nil
	}

	start := time.Now()
	candidates, err := s.inner.Search(ctx, query)
	s.metrics.GeocodeAPIDuration.WithLabelValues(s.provider).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		s.metrics.GeocodeRequests.WithLabelValues(s.provider, "error").Inc()
		s.logger.Warn("place search failed", "provider", s.provider, "query", query, "error", err)
	case len(candidates) == 0:
		s.metrics.GeocodeRequests.WithLabelValues(s.provider, "empty").Inc()
	default:
		s.metrics.GeocodeRequests.WithLabelValues(s.provider, "success").Inc()
	}
	return candidates, err
}
