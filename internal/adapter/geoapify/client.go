package geoapify

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
const Provider = "geoapify"

const defaultBaseURL = "https://api.geoapify.com/v1/geocode/autocomplete"

// Client implements domain.PlaceSearcher using the Geoapify Autocomplete API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limit      int
	placeType  string
	logger     *slog.Logger
}

// NewClient creates a Geoapify autocomplete client restricted to cities.
func NewClient(apiKey string, timeout time.Duration, limit int, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   defaultBaseURL,
		limit:     limit,
		placeType: "city",
		logger:    logger,
	}
}

// Search returns up to limit city candidates matching query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	if domain.IsBlankQuery(query) {
		return []domain.PlaceCandidate{}, nil
	}

	params := url.Values{
		"text":   {query},
		"apiKey": {c.apiKey},
	}
	if c.limit > 0 {
		params.Set("limit", strconv.Itoa(c.limit))
	}
	if c.placeType != "" {
		params.Set("type", c.placeType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("autocomplete request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.NewProviderError(Provider, fmt.Errorf("API error: status %d: %s", resp.StatusCode, body))
	}

	var geoResp response
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, domain.NewProviderError(Provider, fmt.Errorf("decode response: %w", err))
	}
	if geoResp.Features == nil {
		return nil, domain.NewProviderError(Provider, errors.New("decode response: missing features"))
	}

	candidates := make([]domain.PlaceCandidate, 0, len(geoResp.Features))
	for i, f := range geoResp.Features {
		p := f.Properties
		if !p.Lat.Valid || !p.Lon.Valid {
			c.logger.Debug("dropping result without coordinates", "query", query, "index", i, "label", p.Formatted)
			continue
		}
		candidate, ok := domain.NewPlaceCandidate(p.Formatted, p.Lat.Value, p.Lon.Value)
		if !ok {
			c.logger.Debug("dropping invalid result", "query", query, "index", i, "label", p.Formatted)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Geoapify GeoJSON response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Formatted string               `json:"formatted"`
	Lat       domain.RawCoordinate `json:"lat"`
	Lon       domain.RawCoordinate `json:"lon"`
}
