package profile

import "math"

const earthRadius = 6378137.0

// displacement returns the north/east offset in metres from (lat1,lon1) to
// (lat2,lon2), both in degrees, using a flat-earth approximation.
func displacement(lat1, lon1, lat2, lon2 float64) (north, east float64) {
	north = (lat2 - lat1) * math.Pi / 180 * earthRadius
	east = (lon2 - lon1) * math.Pi / 180 * earthRadius * math.Cos(lat1*math.Pi/180)
	return north, east
}

func distance(lat1, lon1, lat2, lon2 float64) float64 {
	n, e := displacement(lat1, lon1, lat2, lon2)
	return math.Hypot(n, e)
}

// offset moves (lat,lon) by north/east metres.
func offset(lat, lon, north, east float64) (float64, float64) {
	dlat := north / earthRadius * 180 / math.Pi
	dlon := east / (earthRadius * math.Cos(lat*math.Pi/180)) * 180 / math.Pi
	return lat + dlat, lon + dlon
}
