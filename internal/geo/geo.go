// Package geo provides the small amount of geodesy the beacon needs:
// coordinate validation and a short-segment distance approximation.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters used by Distance.
const EarthRadius = 6371000.0

const degToRad = math.Pi / 180

// ValidFix reports whether a latitude/longitude pair is usable as a fix.
// It rejects out-of-range values and the (0, 0) sentinel that GPS modules
// report before they have a solution.
func ValidFix(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Distance returns the equirectangular approximation of the distance in
// meters between two coordinates. It is accurate for the short consecutive
// segments the aggregator feeds it (below a few kilometers) and must not be
// used across long spans; callers reject implausible segments before
// accumulating.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * degToRad * math.Cos((lat1+lat2)/2*degToRad)
	y := (lat2 - lat1) * degToRad
	return math.Sqrt(x*x+y*y) * EarthRadius
}
