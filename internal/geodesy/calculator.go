// Package geodesy computes distances between points on the Earth's surface.
//
// Two models are available. The spherical haversine formula ignores
// flattening and is accurate to roughly 0.5%. The inverse Vincenty solution on
// the WGS-84 ellipsoid is accurate to millimeters but does not converge for
// nearly antipodal points, in which case [ErrConvergence] is returned.
package geodesy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/city-distance-service/internal/domain"
)

// DefaultRoundingStep is the presentation rounding used for displayed distances.
const DefaultRoundingStep = 10.0

// ErrUnknownAlgorithm is returned by ParseAlgorithm for unsupported names.
var ErrUnknownAlgorithm = errors.New("unknown distance algorithm")

// Algorithm selects the distance model.
type Algorithm string

const (
	Haversine Algorithm = "haversine"
	Vincenty  Algorithm = "vincenty"
)

var algorithms = map[Algorithm]func(p1, p2 domain.GeoPoint) (float64, error){
	Haversine: func(p1, p2 domain.GeoPoint) (float64, error) { return HaversineKm(p1, p2), nil },
	Vincenty:  VincentyKm,
}

// ParseAlgorithm maps a case-insensitive name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := algorithms[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return alg, nil
}

func (a Algorithm) String() string { return string(a) }

// Calculator computes distances with one fixed algorithm.
type Calculator struct {
	algorithm Algorithm
	distance  func(p1, p2 domain.GeoPoint) (float64, error)
}

// NewCalculator returns a Calculator for alg. An unknown alg falls back to
// Haversine; use ParseAlgorithm to validate user input first.
func NewCalculator(alg Algorithm) Calculator {
	fn, ok := algorithms[alg]
	if !ok {
		alg, fn = Haversine, algorithms[Haversine]
	}
	return Calculator{algorithm: alg, distance: fn}
}

// Algorithm returns the model in use. The zero Calculator reports Haversine.
func (c Calculator) Algorithm() Algorithm {
	if c.distance == nil {
		return Haversine
	}
	return c.algorithm
}

// Distance returns the distance between p1 and p2 in kilometers.
func (c Calculator) Distance(p1, p2 domain.GeoPoint) (float64, error) {
	if c.distance == nil {
		return HaversineKm(p1, p2), nil
	}
	return c.distance(p1, p2)
}

// RoundToNearest rounds km to the nearest multiple of step.
func RoundToNearest(km, step float64) float64 {
	if step <= 0 {
		return km
	}
	return math.Round(km/step) * step
}
