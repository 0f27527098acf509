package entities

import "math"

const earthRadiusKm = 6371.0

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// DistanceKM returns the great-circle distance to other using the Haversine formula
func (l Location) DistanceKM(other Location) float64 {
	lat1Rad := toRadians(l.Latitude)
	lat2Rad := toRadians(other.Latitude)
	deltaLat := toRadians(other.Latitude - l.Latitude)
	deltaLon := toRadians(other.Longitude - l.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Valid reports whether the coordinates are within WGS84 bounds
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
