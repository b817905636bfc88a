// Package olc encodes a coordinate into a short Open Location Code style
// string: ten base-20 symbols (a '+' after the eighth) plus one
// grid-refinement symbol, giving roughly 3x3 meter cells.
package olc

// Alphabet is the 20-symbol digit set. It skips characters that are easy
// to confuse when a code is read out or copied by hand.
const Alphabet = "23456789CFGHJMPQRVWX"

// Digit divisors per axis, most significant first. Latitude is scaled by
// 40000 and longitude by 32000 before extraction, so each pair of divisors
// steps one base-20 digit down.
var (
	latDivisors = [5]int64{800000, 40000, 2000, 100, 5}
	lonDivisors = [5]int64{640000, 32000, 1600, 80, 4}
)

// Encode returns the 12-character code (11 symbols and a literal '+') for
// the given coordinate. Latitude outside [-90, 90] is clamped and longitude
// is normalized into [-180, 180), so any input yields a code; callers that
// care about fix validity must check it beforehand.
//
// Encode is pure: identical coordinates always produce identical codes, and
// nearby coordinates share long common prefixes.
func Encode(lat, lon float64) string {
	// The north pole would land in a degenerate cell one step past the
	// grid, so the latitude axis tops out just below it.
	if lat < -90 {
		lat = -90
	} else if lat > 89.9999 {
		lat = 89.9999
	}
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}

	latGrid := int64((lat + 90) * 40000)
	lonGrid := int64((lon + 180) * 32000)

	buf := make([]byte, 0, 12)
	for i := 0; i < 5; i++ {
		buf = append(buf, Alphabet[(latGrid/latDivisors[i])%20])
		buf = append(buf, Alphabet[(lonGrid/lonDivisors[i])%20])
		if i == 3 {
			buf = append(buf, '+')
		}
	}

	// Eleventh symbol refines the final cell into a 5x4 sub-grid.
	buf = append(buf, Alphabet[(latGrid%5)*4+(lonGrid%4)])
	return string(buf)
}
