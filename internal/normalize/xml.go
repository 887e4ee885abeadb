package normalize

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"flightwx/internal/models"
)

// XMLNormalizer reads the legacy ADDS dataserver response (response/data/METAR)
type XMLNormalizer struct{}

type addsResponse struct {
	XMLName xml.Name `xml:"response"`
	Errors  []string `xml:"errors>error"`
	Data    struct {
		Metar []addsMETAR `xml:"METAR"`
	} `xml:"data"`
}

type addsMETAR struct {
	RawText         string    `xml:"raw_text"`
	StationID       string    `xml:"station_id"`
	ObservationTime string    `xml:"observation_time"`
	Latitude        string    `xml:"latitude"`
	Longitude       string    `xml:"longitude"`
	ElevationM      string    `xml:"elevation_m"`
	FlightCategory  string    `xml:"flight_category"`
	SkyConditions   []addsSky `xml:"sky_condition"`
}

type addsSky struct {
	SkyCover       string `xml:"sky_cover,attr"`
	CloudBaseFtAGL string `xml:"cloud_base_ft_agl,attr"`
}

func (n *XMLNormalizer) Normalize(payload []byte) (*Result, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return &Result{}, nil
	}

	var resp addsResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode METAR XML: %w", err)
	}

	if len(resp.Errors) > 0 && len(resp.Data.Metar) == 0 {
		return nil, fmt.Errorf("METAR dataserver returned errors: %s", strings.Join(resp.Errors, "; "))
	}

	result := &Result{Observations: make([]models.Observation, 0, len(resp.Data.Metar))}
	for i, m := range resp.Data.Metar {
		obs, err := m.normalize(result)
		if err != nil {
			result.warnf("record %d (%s): %v", i, stationLabel(strings.TrimSpace(m.StationID)), err)
			continue
		}
		result.Observations = append(result.Observations, obs)
	}

	return result, nil
}

func (m addsMETAR) normalize(result *Result) (models.Observation, error) {
	stationID := strings.TrimSpace(m.StationID)

	obs := models.Observation{
		StationID:      stationID,
		FlightCategory: models.ParseFlightCategory(strings.ToUpper(strings.TrimSpace(m.FlightCategory))),
		RawText:        strings.TrimSpace(m.RawText),
		ObservedAt:     parseObservationTime(m.ObservationTime),
	}

	var ok bool
	if obs.Latitude, ok = parseCoordinate(m.Latitude); !ok {
		result.warnf("%s: missing or unparseable latitude", stationLabel(stationID))
	}
	if obs.Longitude, ok = parseCoordinate(m.Longitude); !ok {
		result.warnf("%s: missing or unparseable longitude", stationLabel(stationID))
	}

	if elev := strings.TrimSpace(m.ElevationM); elev != "" {
		v, err := strconv.ParseFloat(elev, 64)
		if err != nil || math.IsNaN(v) {
			result.warnf("%s: unparseable elevation %q, using 0 m", stationLabel(stationID), elev)
		} else {
			obs.ElevationM = v
		}
	}

	if len(m.SkyConditions) == 0 && obs.RawText != "" {
		layers, err := ParseSkyGroups(obs.RawText)
		if err != nil {
			return models.Observation{}, err
		}
		obs.SkyLayers = layers
		return obs, nil
	}

	for _, sky := range m.SkyConditions {
		layer, keep, err := buildLayer(sky.SkyCover, sky.CloudBaseFtAGL)
		if err != nil {
			return models.Observation{}, err
		}
		if keep {
			obs.SkyLayers = append(obs.SkyLayers, layer)
		}
	}

	return obs, nil
}
