package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/domain"
)

// Provider is the name reported in errors and metrics.
const Provider = "mapbox"

// Client implements domain.PlaceSearcher using the Mapbox Geocoding API in
// autocomplete mode.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limit      int
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, limit int, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		limit:   limit,
		logger:  logger,
	}
}

// Search forward-geocodes a partial place name into city candidates.
func (c *Client) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	if domain.IsBlankQuery(query) {
		return []domain.PlaceCandidate{}, nil
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"autocomplete": {"true"},
		"types":        {"place"},
	}
	if c.limit > 0 {
		params.Set("limit", strconv.Itoa(c.limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("forward geocode request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.NewProviderError(Provider, fmt.Errorf("API error: status %d: %s", resp.StatusCode, body))
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("decode response: %w", err))
	}
	if mapboxResp.Features == nil {
		return nil, domain.NewProviderError(Provider, errors.New("decode response: missing features"))
	}

	candidates := make([]domain.PlaceCandidate, 0, len(mapboxResp.Features))
	for i, f := range mapboxResp.Features {
		lat, lon, ok := f.coordinates()
		if !ok {
			c.logger.Debug("dropping result without coordinates", "query", query, "index", i, "label", f.PlaceName)
			continue
		}
		candidate, ok := domain.NewPlaceCandidate(f.PlaceName, lat, lon)
		if !ok {
			c.logger.Debug("dropping invalid result", "query", query, "index", i, "label", f.PlaceName)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    json.RawMessage `json:"center"` // [lon, lat]
	PlaceName string          `json:"place_name"`
}

func (f feature) coordinates() (lat, lon float64, ok bool) {
	var center []domain.RawCoordinate
	if err := json.Unmarshal(f.Center, &center); err != nil || len(center) != 2 {
		return 0, 0, false
	}
	if !center[0].Valid || !center[1].Valid {
		return 0, 0, false
	}
	return center[1].Value, center[0].Value, true
}
