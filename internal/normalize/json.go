package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"flightwx/internal/models"
)

// JSONNormalizer reads aviationweather.gov data API METAR arrays. Each record
// may use the current API names (icaoId, lat, clouds[].base), the legacy
// snake_case names (station_id, sky_condition[].cloud_base_ft_agl) or their
// camelCase variants (stationId, skyCondition[].cloudBaseFtAgl).
type JSONNormalizer struct{}

var (
	stationKeys   = []string{"icaoId", "station_id", "stationId"}
	latitudeKeys  = []string{"lat", "latitude"}
	longitudeKeys = []string{"lon", "longitude"}
	elevationKeys = []string{"elev", "elevation_m", "elevationM"}
	categoryKeys  = []string{"fltCat", "flight_category", "flightCategory"}
	rawTextKeys   = []string{"rawOb", "raw_text", "rawText"}
	timeKeys      = []string{"obsTime", "observation_time", "observationTime", "reportTime"}
	layerKeys     = []string{"clouds", "sky_condition", "skyCondition"}
	coverKeys     = []string{"cover", "sky_cover", "skyCover"}
	baseKeys      = []string{"base", "cloud_base_ft_agl", "cloudBaseFtAgl"}
)

type jsonRecord map[string]json.RawMessage

func (n *JSONNormalizer) Normalize(payload []byte) (*Result, error) {
	records, err := decodeRecords(payload)
	if err != nil {
		return nil, err
	}

	result := &Result{Observations: make([]models.Observation, 0, len(records))}
	for i, rec := range records {
		obs, err := normalizeJSONRecord(rec, result)
		if err != nil {
			result.warnf("record %d (%s): %v", i, stationLabel(rec.text(stationKeys...)), err)
			continue
		}
		result.Observations = append(result.Observations, obs)
	}

	return result, nil
}

func decodeRecords(payload []byte) ([]jsonRecord, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var records []jsonRecord
	if trimmed[0] == '{' {
		var wrapper struct {
			Data []jsonRecord `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode METAR JSON: %w", err)
		}
		return wrapper.Data, nil
	}

	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to decode METAR JSON: %w", err)
	}
	return records, nil
}

func normalizeJSONRecord(rec jsonRecord, result *Result) (models.Observation, error) {
	stationID := strings.TrimSpace(rec.text(stationKeys...))

	obs := models.Observation{
		StationID:      stationID,
		FlightCategory: models.ParseFlightCategory(strings.ToUpper(rec.text(categoryKeys...))),
		RawText:        rec.text(rawTextKeys...),
		ObservedAt:     parseObservationTime(rec.text(timeKeys...)),
	}

	var ok bool
	if obs.Latitude, ok = parseCoordinate(rec.text(latitudeKeys...)); !ok {
		result.warnf("%s: missing or unparseable latitude", stationLabel(stationID))
	}
	if obs.Longitude, ok = parseCoordinate(rec.text(longitudeKeys...)); !ok {
		result.warnf("%s: missing or unparseable longitude", stationLabel(stationID))
	}

	if elev := rec.text(elevationKeys...); elev != "" {
		v, err := strconv.ParseFloat(elev, 64)
		if err != nil || math.IsNaN(v) {
			result.warnf("%s: unparseable elevation %q, using 0 m", stationLabel(stationID), elev)
		} else {
			obs.ElevationM = v
		}
	}

	layers, found, err := rec.layers()
	if err != nil {
		return models.Observation{}, err
	}
	if !found && obs.RawText != "" {
		layers, err = ParseSkyGroups(obs.RawText)
		if err != nil {
			return models.Observation{}, err
		}
	}
	obs.SkyLayers = layers

	return obs, nil
}

// text returns the first present key as text: strings unquoted, numbers verbatim, null as ""
func (r jsonRecord) text(keys ...string) string {
	for _, key := range keys {
		raw, ok := r[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		if raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return s
			}
			continue
		}
		return string(raw)
	}
	return ""
}

// layers decodes the first present layer array; found is false when the record has none
func (r jsonRecord) layers() ([]models.SkyLayer, bool, error) {
	for _, key := range layerKeys {
		raw, ok := r[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}

		var entries []jsonRecord
		if err := json.Unmarshal(raw, &entries); err != nil {
			// some feeds send a single layer as an object
			var single jsonRecord
			if err2 := json.Unmarshal(raw, &single); err2 != nil {
				return nil, true, fmt.Errorf("unreadable %s: %w", key, err)
			}
			entries = []jsonRecord{single}
		}

		layers := make([]models.SkyLayer, 0, len(entries))
		for _, entry := range entries {
			layer, keep, err := buildLayer(entry.text(coverKeys...), entry.text(baseKeys...))
			if err != nil {
				return nil, true, err
			}
			if keep {
				layers = append(layers, layer)
			}
		}
		return layers, true, nil
	}
	return nil, false, nil
}

func stationLabel(id string) string {
	if id == "" {
		return "unidentified station"
	}
	return id
}
