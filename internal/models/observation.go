package models

import "time"

// Cover is the sky-cover code of a reported cloud layer
type Cover string

const (
	CoverFew       Cover = "FEW"
	CoverScattered Cover = "SCT"
	CoverBroken    Cover = "BKN"
	CoverOvercast  Cover = "OVC"
	CoverObscured  Cover = "OVX" // vertical visibility into an obscuration
	CoverClear     Cover = "CLR"
	CoverSkyClear  Cover = "SKC"
)

// IsCeiling reports whether a layer with this cover constitutes a ceiling
func (c Cover) IsCeiling() bool {
	switch c {
	case CoverBroken, CoverOvercast, CoverObscured:
		return true
	}
	return false
}

// FlightCategory is the provider's VFR/MVFR/IFR/LIFR classification
type FlightCategory string

const (
	CategoryVFR     FlightCategory = "VFR"
	CategoryMVFR    FlightCategory = "MVFR"
	CategoryIFR     FlightCategory = "IFR"
	CategoryLIFR    FlightCategory = "LIFR"
	CategoryUnknown FlightCategory = "UNKNOWN"
)

// ParseFlightCategory maps provider text to a FlightCategory, UNKNOWN when unrecognized
func ParseFlightCategory(s string) FlightCategory {
	switch FlightCategory(s) {
	case CategoryVFR, CategoryMVFR, CategoryIFR, CategoryLIFR:
		return FlightCategory(s)
	}
	return CategoryUnknown
}

// SkyLayer is one reported cloud layer
type SkyLayer struct {
	Cover     Cover `json:"cover"`
	BaseFtAGL int   `json:"base_ft_agl"` // above the reporting station, not the launch point
}

// Observation is one METAR from one station, normalized from any provider format
type Observation struct {
	StationID      string         `json:"station_id"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	ElevationM     float64        `json:"elevation_m"` // 0 when the provider omits it
	SkyLayers      []SkyLayer     `json:"sky_layers"`
	FlightCategory FlightCategory `json:"flight_category"`
	RawText        string         `json:"raw_text"`
	ObservedAt     time.Time      `json:"observed_at"`
}

// LaunchPoint is where the imagery flight departs from
type LaunchPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FlightParameters configures one go/no-go evaluation
type FlightParameters struct {
	CollectionAltitudeFtMSL float64     `json:"collection_altitude_ft_msl"`
	SafetyBufferFt          float64     `json:"safety_buffer_ft"`
	SearchRadiusNM          float64     `json:"search_radius_nm"`
	LaunchPoint             LaunchPoint `json:"launch_point"`
}

// RequiredBaseFtMSL is the lowest ceiling that still leaves the safety buffer above collection altitude
func (p FlightParameters) RequiredBaseFtMSL() float64 {
	return p.CollectionAltitudeFtMSL + p.SafetyBufferFt
}

// DefaultFlightParameters returns the KVYS imagery mission defaults
func DefaultFlightParameters() FlightParameters {
	return FlightParameters{
		CollectionAltitudeFtMSL: 8500,
		SafetyBufferFt:          500,
		SearchRadiusNM:          50,
		LaunchPoint: LaunchPoint{
			Latitude:  41.3514,
			Longitude: -89.1531,
		},
	}
}
