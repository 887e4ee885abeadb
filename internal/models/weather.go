package models

import "time"

// TAF is the terminal forecast for the launch airport, kept for display only
type TAF struct {
	StationID string    `json:"station_id"`
	RawText   string    `json:"raw_text"`
	IssuedAt  time.Time `json:"issued_at"`
}

// SunWindow is the part of the day the sun stays at or above MinElevationDeg
type SunWindow struct {
	Date            time.Time `json:"date"`
	MinElevationDeg float64   `json:"min_elevation_deg"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	PeakElevation   float64   `json:"peak_elevation_deg"`
	HasWindow       bool      `json:"has_window"` // false when the sun never climbs that high
}
