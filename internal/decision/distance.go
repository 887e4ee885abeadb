package decision

import (
	"math"

	"flightwx/internal/models"
)

// EarthRadiusNM is the mean Earth radius used for great-circle distances
const EarthRadiusNM = 3440.065

// DistanceNM returns the haversine distance between two points in nautical miles
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// DistanceFromLaunch returns how far an observation's station is from the launch point
func DistanceFromLaunch(launch models.LaunchPoint, obs models.Observation) float64 {
	return DistanceNM(launch.Latitude, launch.Longitude, obs.Latitude, obs.Longitude)
}
