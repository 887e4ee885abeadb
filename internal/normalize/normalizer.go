// Package normalize converts aviation weather provider payloads into
// models.Observation values. Provider field names and formats never leak
// past this package.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"flightwx/internal/models"
)

// Normalizer turns one provider response body into observations
type Normalizer interface {
	Normalize(payload []byte) (*Result, error)
}

// Result holds normalized observations plus notes about fields that had to be defaulted
type Result struct {
	Observations []models.Observation
	Warnings     []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ForFormat returns the normalizer for a provider format ("json" or "xml")
func ForFormat(format string) (Normalizer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return &JSONNormalizer{}, nil
	case "xml":
		return &XMLNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported weather source format %q (expected json or xml)", format)
	}
}

// LatestPerStation keeps only the most recent observation of each station.
// Output is sorted by station id; observations without a time lose to ones with.
func LatestPerStation(observations []models.Observation) []models.Observation {
	latest := make(map[string]models.Observation, len(observations))
	var unnamed []models.Observation

	for _, obs := range observations {
		if obs.StationID == "" {
			unnamed = append(unnamed, obs)
			continue
		}
		current, exists := latest[obs.StationID]
		if !exists || obs.ObservedAt.After(current.ObservedAt) {
			latest[obs.StationID] = obs
		}
	}

	result := make([]models.Observation, 0, len(latest)+len(unnamed))
	for _, obs := range latest {
		result = append(result, obs)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StationID < result[j].StationID
	})

	// unnamed records are kept so the decision engine can report them
	return append(result, unnamed...)
}

// parseCoordinate parses a latitude/longitude string; missing or bad values become NaN
func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

// maxCloudBaseFt bounds layer bases; anything higher is a provider error
const maxCloudBaseFt = 100000

// parseCloudBase parses a layer base in feet; empty or unparseable means the
// provider gave none. Non-finite or out-of-range numbers are an error.
func parseCloudBase(s string) (int, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if math.IsInf(v, 0) {
			return 0, false, fmt.Errorf("cloud base %q out of range", s)
		}
		return 0, false, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxCloudBaseFt {
		return 0, false, fmt.Errorf("cloud base %q out of range", s)
	}
	return int(math.Round(v)), true, nil
}

func parseObservationTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// buildLayer converts a provider cover/base pair. Clear-sky covers produce no
// layer; a ceiling layer without a usable base is an error because the station
// can no longer be judged.
func buildLayer(cover, base string) (models.SkyLayer, bool, error) {
	c := models.Cover(strings.ToUpper(strings.TrimSpace(cover)))
	switch c {
	case "", models.CoverClear, models.CoverSkyClear, "NSC", "NCD", "CAVOK":
		return models.SkyLayer{}, false, nil
	case "VV":
		c = models.CoverObscured
	}

	ft, ok, err := parseCloudBase(base)
	if err != nil {
		return models.SkyLayer{}, false, fmt.Errorf("%s layer: %w", c, err)
	}
	if !ok {
		if c.IsCeiling() {
			return models.SkyLayer{}, false, fmt.Errorf("%s layer has no usable base %q", c, base)
		}
		return models.SkyLayer{}, false, nil
	}
	return models.SkyLayer{Cover: c, BaseFtAGL: ft}, true, nil
}
