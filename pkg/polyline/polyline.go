// Package polyline encodes and decodes the Google polyline format at a
// configurable precision. Precision 5 is the classic Google/OSRM format;
// precision 6 is used by Valhalla shapes and OSRM/Mapbox "polyline6".
// The algorithm is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Common precisions.
const (
	Precision5 = 5
	Precision6 = 6
)

// ErrTruncated is returned when the encoded string ends in the middle of a value
// or has a latitude without a longitude.
var ErrTruncated = errors.New("polyline: truncated input")

// ErrInvalidPrecision is returned for precisions outside [1, 10].
var ErrInvalidPrecision = errors.New("polyline: invalid precision")

// Decode decodes an encoded polyline into a line string of [lon, lat] points.
// The wire format stores latitude first.
func Decode(encoded string, precision int) (orb.LineString, error) {
	factor, err := factorFor(precision)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, nil
	}

	var (
		line  orb.LineString
		index int
		lat   int64
		lon   int64
	)

	for index < len(encoded) {
		latDelta, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: missing longitude at offset %d", ErrTruncated, next)
		}
		lonDelta, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += latDelta
		lon += lonDelta
		line = append(line, orb.Point{float64(lon) / factor, float64(lat) / factor})
	}

	return line, nil
}

// decodeValue decodes one zig-zag varint starting at index and returns the
// value and the index just past it.
func decodeValue(encoded string, index int) (int64, int, error) {
	var (
		shift  uint
		result int64
	)

	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("%w: unterminated value", ErrTruncated)
		}
		b := int64(encoded[index]) - 63
		index++
		if b < 0 || b > 0x3f {
			return 0, index, fmt.Errorf("polyline: invalid character %q at offset %d", encoded[index-1], index-1)
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes a line string of [lon, lat] points at the given precision.
func Encode(line orb.LineString, precision int) (string, error) {
	factor, err := factorFor(precision)
	if err != nil {
		return "", err
	}
	if len(line) == 0 {
		return "", nil
	}

	encoded := make([]byte, 0, len(line)*6)
	var prevLat, prevLon int64

	for _, p := range line {
		lat := int64(math.Round(p.Lat() * factor))
		lon := int64(math.Round(p.Lon() * factor))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded), nil
}

func encodeValue(buf []byte, value int64) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

func factorFor(precision int) (float64, error) {
	if precision < 1 || precision > 10 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	return math.Pow10(precision), nil
}
