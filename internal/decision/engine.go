// Package decision turns normalized weather observations into a go/no-go
// verdict for an imagery collection flight.
//
// A flight is GO only when every station within the search radius either has
// no ceiling or has a ceiling, converted to MSL with that station's own
// elevation, at or above collection altitude plus the safety buffer. No
// stations within radius is a NO_GO.
package decision

import (
	"fmt"
	"math"
	"strings"

	"flightwx/internal/models"
)

// NoStationsReason is the verdict reason when nothing reports within the search radius
const NoStationsReason = "no stations reporting within radius"

// Evaluate applies the ceiling rule to observations. It only fails on invalid
// params; malformed observations are excluded and listed in Verdict.Warnings.
func Evaluate(observations []models.Observation, params models.FlightParameters) (*models.Verdict, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	required := params.RequiredBaseFtMSL()
	verdict := &models.Verdict{
		Decision:             models.DecisionNoGo,
		Reasons:              []string{},
		ContributingStations: []models.StationResult{},
		RequiredBaseFtMSL:    required,
	}

	for _, obs := range observations {
		if reason := checkObservation(obs); reason != "" {
			verdict.Warnings = append(verdict.Warnings, PartialDataWarning{StationID: obs.StationID, Reason: reason}.String())
			continue
		}

		distance := DistanceFromLaunch(params.LaunchPoint, obs)
		if distance > params.SearchRadiusNM {
			continue
		}

		verdict.ContributingStations = append(verdict.ContributingStations, evaluateStation(obs, distance, required))
	}

	if len(verdict.ContributingStations) == 0 {
		verdict.Reasons = append(verdict.Reasons, NoStationsReason)
		return verdict, nil
	}

	for _, station := range verdict.ContributingStations {
		if station.Passed {
			continue
		}
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("%s: ceiling %.0f ft MSL (%d ft AGL) below required %.0f ft MSL",
			station.Observation.StationID, station.CeilingFtMSL, station.CeilingFtAGL, required))
	}

	if len(verdict.Reasons) == 0 {
		verdict.Decision = models.DecisionGo
	}

	return verdict, nil
}

// ValidateParameters rejects parameters the engine cannot evaluate
func ValidateParameters(params models.FlightParameters) error {
	checks := []struct {
		field string
		value float64
	}{
		{"collection_altitude_ft_msl", params.CollectionAltitudeFtMSL},
		{"safety_buffer_ft", params.SafetyBufferFt},
		{"search_radius_nm", params.SearchRadiusNM},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &ConfigurationError{Field: c.field, Value: c.value, Rule: "must be a finite number"}
		}
		if c.value < 0 {
			return &ConfigurationError{Field: c.field, Value: c.value, Rule: "must not be negative"}
		}
	}
	if params.SearchRadiusNM == 0 {
		return &ConfigurationError{Field: "search_radius_nm", Value: 0, Rule: "must be greater than zero"}
	}

	lat, lon := params.LaunchPoint.Latitude, params.LaunchPoint.Longitude
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &ConfigurationError{Field: "launch_point.latitude", Value: lat, Rule: "must be within [-90, 90]"}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return &ConfigurationError{Field: "launch_point.longitude", Value: lon, Rule: "must be within [-180, 180]"}
	}
	return nil
}

// checkObservation returns why an observation cannot be used, or "" when it can
func checkObservation(obs models.Observation) string {
	if strings.TrimSpace(obs.StationID) == "" {
		return "missing station id"
	}
	if math.IsNaN(obs.Latitude) || obs.Latitude < -90 || obs.Latitude > 90 {
		return "missing or invalid latitude"
	}
	if math.IsNaN(obs.Longitude) || obs.Longitude < -180 || obs.Longitude > 180 {
		return "missing or invalid longitude"
	}
	if math.IsNaN(obs.ElevationM) || math.IsInf(obs.ElevationM, 0) {
		return "invalid elevation"
	}
	for _, layer := range obs.SkyLayers {
		if layer.BaseFtAGL < 0 {
			return fmt.Sprintf("negative cloud base %d ft for %s layer", layer.BaseFtAGL, layer.Cover)
		}
	}
	return ""
}

func evaluateStation(obs models.Observation, distance, required float64) models.StationResult {
	obs.SkyLayers = append([]models.SkyLayer(nil), obs.SkyLayers...)

	result := models.StationResult{
		Observation: obs,
		DistanceNM:  distance,
		Passed:      true,
	}

	base, ok := EffectiveCeiling(obs.SkyLayers)
	if !ok {
		return result
	}

	result.HasCeiling = true
	result.CeilingFtAGL = base
	result.CeilingFtMSL = CeilingMSL(base, obs.ElevationM)
	result.Passed = result.CeilingFtMSL >= required
	return result
}
