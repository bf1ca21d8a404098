package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is outside
// the WGS-84 range or not a finite number.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// GeoPoint is a WGS-84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint validates lat/lon and returns the point.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return GeoPoint{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, lat, lon)
	}
	return p, nil
}

// Valid reports whether the latitude is within [-90, 90] and the longitude
// within [-180, 180].
func (p GeoPoint) Valid() bool {
	if !finite(p.Lat) || !finite(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// ParseGeoPoint parses "lat,lon".
func ParseGeoPoint(s string) (GeoPoint, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return GeoPoint{}, fmt.Errorf("%w: expected \"lat,lon\", got %q", ErrInvalidCoordinates, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, lonStr)
	}
	return NewGeoPoint(lat, lon)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PlaceCandidate is one geocoded suggestion shown to the user.
type PlaceCandidate struct {
	Label    string   `json:"label"`
	Location GeoPoint `json:"location"`
}

// NewPlaceCandidate builds a candidate, reporting false when the label is
// blank or the coordinates are out of range.
func NewPlaceCandidate(label string, lat, lon float64) (PlaceCandidate, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return PlaceCandidate{}, false
	}
	p, err := NewGeoPoint(lat, lon)
	if err != nil {
		return PlaceCandidate{}, false
	}
	return PlaceCandidate{Label: label, Location: p}, true
}

// PlaceSearcher resolves free text into place candidates.
type PlaceSearcher interface {
	// Search returns candidates for query in provider order. A blank query
	// returns an empty slice without contacting the provider.
	Search(ctx context.Context, query string) ([]PlaceCandidate, error)
}

// IsBlankQuery reports whether q is empty or whitespace-only.
func IsBlankQuery(q string) bool {
	return strings.TrimSpace(q) == ""
}

// RawCoordinate decodes a JSON number, a numeric string, or null.
// Valid is false when the field was missing or could not be parsed, which lets
// adapters drop a single bad result instead of failing the whole response.
type RawCoordinate struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never fails; unparsable input leaves Valid false.
func (c *RawCoordinate) UnmarshalJSON(data []byte) error {
	*c = RawCoordinate{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		c.Value, c.Valid = f, finite(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	c.Value, c.Valid = f, finite(f)
	return nil
}
