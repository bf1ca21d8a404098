package geodesy

import (
	"math"

	"github.com/couchcryptid/city-distance-service/internal/domain"
)

// MeanEarthRadiusKm is the IUGG mean radius used by the spherical model.
const MeanEarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between p1 and p2 on a sphere
// of radius MeanEarthRadiusKm, rounded to the nearest 10 km.
func HaversineKm(p1, p2 domain.GeoPoint) float64 {
	return RoundToNearest(haversineKm(p1, p2), DefaultRoundingStep)
}

func haversineKm(p1, p2 domain.GeoPoint) float64 {
	dLat := toRadians(p2.Lat - p1.Lat)
	dLon := toRadians(p2.Lon - p1.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(p1.Lat))*math.Cos(toRadians(p2.Lat))*sinLon*sinLon
	a = math.Min(a, 1) // rounding near antipodes
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return MeanEarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
