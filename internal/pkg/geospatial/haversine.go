package geospatial

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance in the directory.
const EarthRadiusKm = 6371.01

// kmPerDegreeLat is the length of one degree of latitude on the sphere above.
const kmPerDegreeLat = EarthRadiusKm * math.Pi / 180

// HaversineKm calculates the great-circle distance in kilometres between two
// points given in decimal degrees. Inputs are not range checked; NaN and Inf
// propagate to the result, while finite inputs always give a finite result.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// WithinRadius reports whether (lat2, lon2) lies no further than radiusKm from (lat1, lon1).
func WithinRadius(lat1, lon1, lat2, lon2, radiusKm float64) bool {
	return HaversineKm(lat1, lon1, lat2, lon2) <= radiusKm
}

// BoundingBox returns a rectangle that encloses every point within radiusKm
// of (lat, lon). ok is false when no such rectangle exists in plain lat/lon
// space: the circle touches a pole, wraps the antimeridian, or the input is
// not finite. Callers must then fall back to scanning all points.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64, ok bool) {
	if !finite(lat) || !finite(lon) || !finite(radiusKm) || radiusKm < 0 {
		return 0, 0, 0, 0, false
	}

	latDelta := radiusKm / kmPerDegreeLat
	minLat, maxLat = lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return 0, 0, 0, 0, false
	}

	// Widest longitude span is at the latitude closest to a pole.
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat))
	lonDelta := latDelta / math.Cos(toRad(widest))
	minLon, maxLon = lon-lonDelta, lon+lonDelta
	if minLon < -180 || maxLon > 180 {
		return 0, 0, 0, 0, false
	}

	return minLat, minLon, maxLat, maxLon, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
