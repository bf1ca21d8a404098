package geodesy

import (
	"errors"
	"math"

	"github.com/couchcryptid/city-distance-service/internal/domain"
)

// WGS-84 ellipsoid.
const (
	wgs84A = 6378137.0          // semi-major axis, meters
	wgs84B = 6356752.314245     // semi-minor axis, meters
	wgs84F = 1 / 298.257223563 // flattening
)

const (
	vincentyTolerance = 1e-12 // radians, on lambda
	vincentyMaxIter   = 100
)

// ErrConvergence is returned when the inverse Vincenty iteration does not
// settle within the iteration cap. This happens for nearly antipodal points.
var ErrConvergence = errors.New("vincenty: formula failed to converge")

// VincentyKm returns the ellipsoidal distance between p1 and p2 on WGS-84 in
// kilometers, unrounded.
func VincentyKm(p1, p2 domain.GeoPoint) (float64, error) {
	l := toRadians(p2.Lon - p1.Lon)
	u1 := math.Atan((1 - wgs84F) * math.Tan(toRadians(p1.Lat)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(toRadians(p2.Lat)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	var (
		sinSigma, cosSigma, sigma float64
		cosSqAlpha, cos2SigmaM    float64
		converged                 bool
	)

	lambda := l
	for range vincentyMaxIter {
		sinLambda, cosLambda := math.Sincos(lambda)

		t1 := cosU2 * sinLambda
		t2 := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(t1*t1 + t2*t2)
		if sinSigma == 0 {
			return 0, nil // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0 // equatorial line
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		c := wgs84F / 16 * cosSqAlpha * (4 + wgs84F*(4-3*cosSqAlpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) <= vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, ErrConvergence
	}

	uSq := cosSqAlpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := b * sinSigma * (cos2SigmaM + b/4*
		(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	meters := wgs84B * a * (sigma - deltaSigma)
	return meters / 1000, nil
}
