package geo

import "math"

// Mean earth radius in meters (IUGG).
const earthRadiusM = 6371008.8

// Point is a WGS84 coordinate.
type Point struct {
	Lat  float64 `json:"latitude"`
	Long float64 `json:"longitude"`
}

// Valid reports whether the point is a plausible lat/long pair.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Long >= -180 && p.Long <= 180
}

// Distance returns the great-circle distance between two points in meters
// (haversine). Radii are expressed in meters over real coordinates, so planar
// Euclidean distance would be wrong here.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLong := (b.Long - a.Long) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLong/2)*math.Sin(dLong/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}
