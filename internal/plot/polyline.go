package plot

import "strings"

// encodePolyline encodes (lat, lng) pairs with the Google polyline algorithm
// at 1e-5 precision, the format the Mapbox path overlay expects.
func encodePolyline(coords [][2]float64) string {
	var b strings.Builder
	var prevLat, prevLng int64
	for _, c := range coords {
		lat := int64(round(c[0] * 1e5))
		lng := int64(round(c[1] * 1e5))
		writeSigned(&b, lat-prevLat)
		writeSigned(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func writeSigned(b *strings.Builder, value int64) {
	v := value << 1
	if value < 0 {
		v = ^v
	}
	for v >= 0x20 {
		b.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	b.WriteByte(byte(v + 63))
}

func round(v float64) float64 {
	if v < 0 {
		return float64(int64(v - 0.5))
	}
	return float64(int64(v + 0.5))
}
