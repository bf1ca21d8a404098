package autocomplete

import "github.com/couchcryptid/city-distance-service/internal/domain"

// queryCache maps a verbatim query to the candidates the provider returned
// for it. It has no expiry or size bound: it lives only as long as its
// controller. Callers hold the controller lock.
type queryCache struct {
	entries map[string][]domain.PlaceCandidate
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string][]domain.PlaceCandidate)}
}

func (c *queryCache) get(query string) ([]domain.PlaceCandidate, bool) {
	v, ok := c.entries[query]
	return v, ok
}

func (c *queryCache) put(query string, candidates []domain.PlaceCandidate) {
	if query == "" {
		return
	}
	if candidates == nil {
		candidates = []domain.PlaceCandidate{}
	}
	c.entries[query] = candidates
}

func (c *queryCache) len() int {
	return len(c.entries)
}
