// Package domain models places and points used by the city distance service.
//
// # Coordinates
//
// All coordinates are WGS-84 degrees. [GeoPoint] keeps the conventional
// (lat, lon) order. Some providers use the GeoJSON order instead:
//
//	Mapbox "center": [lon, lat]
//	Geoapify "properties": {"lat": ..., "lon": ...}
//
// Adapters convert to [GeoPoint] at the boundary. A point outside
// [-90, 90] x [-180, 180] never reaches a [PlaceCandidate].
//
// # Provider results
//
// Geocoding providers sometimes return partial features: a missing "lat",
// a string "48.85", or null. [RawCoordinate] decodes all of these without
// failing so a single malformed feature is dropped while the rest of the
// response is kept. Transport and decode failures of the response as a whole
// surface as [ProviderError].
//
// # Queries
//
// A query is matched verbatim: "Par" and "par " are distinct cache keys.
// Only blank queries are special; see [IsBlankQuery].
package domain
