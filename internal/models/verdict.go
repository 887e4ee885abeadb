package models

// Decision is the outcome of an evaluation
type Decision string

const (
	DecisionGo   Decision = "GO"
	DecisionNoGo Decision = "NO_GO"
)

// StationResult is one station that was within radius and used in the decision
type StationResult struct {
	Observation  Observation `json:"observation"`
	DistanceNM   float64     `json:"distance_nm"`
	HasCeiling   bool        `json:"has_ceiling"`
	CeilingFtAGL int         `json:"ceiling_ft_agl,omitempty"`
	CeilingFtMSL float64     `json:"ceiling_ft_msl,omitempty"`
	Passed       bool        `json:"passed"`
}

// Verdict is the result of evaluating a set of observations against flight parameters
type Verdict struct {
	Decision             Decision        `json:"decision"`
	Reasons              []string        `json:"reasons"`
	ContributingStations []StationResult `json:"contributing_stations"`
	Warnings             []string        `json:"warnings,omitempty"` // excluded observations
	RequiredBaseFtMSL    float64         `json:"required_base_ft_msl"`
}

// IsGo reports whether the flight may proceed
func (v *Verdict) IsGo() bool {
	return v != nil && v.Decision == DecisionGo
}

// FailingStations returns the contributing stations that did not pass
func (v *Verdict) FailingStations() []StationResult {
	var failing []StationResult
	for _, s := range v.ContributingStations {
		if !s.Passed {
			failing = append(failing, s)
		}
	}
	return failing
}
