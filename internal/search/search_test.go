package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock searcher ---

type mockSearcher struct {
	mu      sync.Mutex
	queries []string
	result  []domain.PlaceCandidate
	err     error
}

func (m *mockSearcher) Search(_ context.Context, query string) ([]domain.PlaceCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return m.result, m.err
}

func (m *mockSearcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var paris = domain.PlaceCandidate{Label: "Paris, France", Location: domain.GeoPoint{Lat: 48.8566, Lon: 2.3522}}

// --- RateLimitedSearcher ---

func TestRateLimited_PassesThrough(t *testing.T) {
	inner := &mockSearcher{result: []domain.PlaceCandidate{paris}}
	s := NewRateLimited(inner, "geoapify", 100, 1)

	got, err := s.Search(context.Background(), "Par")
	require.NoError(t, err)
	assert.Equal(t, []domain.PlaceCandidate{paris}, got)
	assert.Equal(t, []string{"Par"}, inner.queries)
}

func TestRateLimited_BlankQuerySkipsInner(t *testing.T) {
	inner := &mockSearcher{}
	s := NewRateLimited(inner, "geoapify", 1, 1)

	got, err := s.Search(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, inner.calls())
}

func TestRateLimited_WaitHonoursContext(t *testing.T) {
	inner := &mockSearcher{}
	s := NewRateLimited(inner, "geoapify", 0.001, 1)

	_, err := s.Search(context.Background(), "a") // consumes the burst
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Search(ctx, "b")

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "geoapify", pe.Provider)
	assert.Equal(t, 1, inner.calls())
}

func TestRateLimited_Unlimited(t *testing.T) {
	inner := &mockSearcher{}
	s := NewRateLimited(inner, "geoapify", 0, 0)

	for range 50 {
		_, err := s.Search(context.Background(), "q")
		require.NoError(t, err)
	}
	assert.Equal(t, 50, inner.calls())
}

// --- InstrumentedSearcher ---

func TestInstrumented_RecordsOutcomes(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	ok := NewInstrumented(&mockSearcher{result: []domain.PlaceCandidate{paris}}, "mapbox", metrics, discardLogger())
	_, err := ok.Search(context.Background(), "Par")
	require.NoError(t, err)

	empty := NewInstrumented(&mockSearcher{}, "mapbox", metrics, discardLogger())
	_, err = empty.Search(context.Background(), "Xyz")
	require.NoError(t, err)

	cause := domain.NewProviderError("mapbox", errors.New("boom"))
	failing := NewInstrumented(&mockSearcher{err: cause}, "mapbox", metrics, discardLogger())
	_, err = failing.Search(context.Background(), "Par")
	require.ErrorIs(t, err, cause)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("mapbox", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("mapbox", "empty")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("mapbox", "error")), 0)
}

func TestInstrumented_BlankQueryNotCounted(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	inner := &mockSearcher{}
	s := NewInstrumented(inner, "mapbox", metrics, discardLogger())

	_, err := s.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, inner.calls())
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.GeocodeRequests))
}
