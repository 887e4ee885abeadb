// Package solar computes sun elevation for planning imagery collection windows.
package solar

import (
	"math"
	"time"

	"flightwx/internal/models"
)

// DefaultMinElevationDeg is the lowest sun elevation usable for imagery collection
const DefaultMinElevationDeg = 30.0

// Elevation returns the sun's elevation above the horizon in degrees for an
// observer at lat/lon at time t. Based on the NOAA solar calculator
// equations, without refraction correction.
func Elevation(lat, lon float64, t time.Time) float64 {
	jd := julianDate(t.UTC())
	jc := (jd - 2451545.0) / 36525.0

	// geometric mean longitude and anomaly (degrees)
	l0 := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360.0)
	m := 357.52911 + jc*(35999.05029-0.0001537*jc)
	mRad := deg2rad(m)

	c := math.Sin(mRad)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*mRad)*(0.019993-0.000101*jc) +
		math.Sin(3*mRad)*0.000289

	omega := 125.04 - 1934.136*jc
	lambda := l0 + c - 0.00569 - 0.00478*math.Sin(deg2rad(omega))

	epsilon0 := 23.0 + (26.0+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60.0)/60.0
	epsilon := epsilon0 + 0.00256*math.Cos(deg2rad(omega))

	lambdaRad := deg2rad(lambda)
	epsilonRad := deg2rad(epsilon)
	ra := rad2deg(math.Atan2(math.Cos(epsilonRad)*math.Sin(lambdaRad), math.Cos(lambdaRad)))
	dec := rad2deg(math.Asin(math.Sin(epsilonRad) * math.Sin(lambdaRad)))

	gmst := math.Mod(280.46061837+360.98564736629*(jd-2451545.0)+
		0.000387933*jc*jc-jc*jc*jc/38710000.0, 360.0)

	ha := math.Mod(gmst+lon-ra, 360.0)
	if ha < -180 {
		ha += 360
	} else if ha > 180 {
		ha -= 360
	}

	latRad := deg2rad(lat)
	decRad := deg2rad(dec)
	sinAlt := math.Sin(latRad)*math.Sin(decRad) + math.Cos(latRad)*math.Cos(decRad)*math.Cos(deg2rad(ha))
	return rad2deg(math.Asin(sinAlt))
}

// Window finds the period of the local day containing date during which the
// sun is at or above minElevation. The day is sampled minute by minute.
func Window(lat, lon float64, date time.Time, minElevation float64) models.SunWindow {
	loc := date.Location()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	window := models.SunWindow{
		Date:            start,
		MinElevationDeg: minElevation,
		PeakElevation:   -90,
	}

	for t := start; t.Before(end); t = t.Add(time.Minute) {
		elevation := Elevation(lat, lon, t)
		if elevation > window.PeakElevation {
			window.PeakElevation = elevation
		}
		if elevation < minElevation {
			continue
		}
		if !window.HasWindow {
			window.HasWindow = true
			window.Start = t
		}
		window.End = t
	}

	return window
}

func julianDate(t time.Time) float64 {
	year := t.Year()
	month := int(t.Month())
	day := float64(t.Day()) +
		(float64(t.Hour())+float64(t.Minute())/60.0+float64(t.Second())/3600.0)/24.0

	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + day + float64(b) - 1524.5
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func rad2deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
