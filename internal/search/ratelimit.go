// Package search holds decorators around domain.PlaceSearcher providers.
package search

import (
	"context"
	"fmt"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimitedSearcher delays provider calls to stay under a request rate.
type RateLimitedSearcher struct {
	inner    domain.PlaceSearcher
	provider string
	limiter  *rate.Limiter
}

// NewRateLimited wraps inner with a token bucket of rps requests per second
// and the given burst. rps <= 0 disables limiting.
func NewRateLimited(inner domain.PlaceSearcher, provider string, rps float64, burst int) *RateLimitedSearcher {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSearcher{
		inner:    inner,
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (s *RateLimitedSearcher) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	if domain.IsBlankQuery(query) {
		return []domain.PlaceCandidate{}, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, domain.NewProviderError(s.provider, fmt.Errorf("rate limit wait: %w", err))
	}
	return s.inner.Search(ctx, query)
}
