package models

import "time"

// FlightReport is a ceiling check result prepared for email delivery and the status API
type FlightReport struct {
	RunID        string           `json:"run_id"`
	Date         time.Time        `json:"date"`
	LocationName string           `json:"location_name"`
	StationID    string           `json:"station_id"`
	Parameters   FlightParameters `json:"parameters"`
	Verdict      *Verdict         `json:"verdict"`
	TAF          *TAF             `json:"taf,omitempty"`
	SunWindow    *SunWindow       `json:"sun_window,omitempty"`
	Briefing     string           `json:"briefing,omitempty"`
	Summary      string           `json:"summary"`
}
