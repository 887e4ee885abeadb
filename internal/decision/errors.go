package decision

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is wrapped by every ConfigurationError
var ErrInvalidParameters = errors.New("invalid flight parameters")

// ConfigurationError reports a FlightParameters field that cannot be evaluated
type ConfigurationError struct {
	Field string
	Value float64
	Rule  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid flight parameters: %s=%v %s", e.Field, e.Value, e.Rule)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidParameters
}

// PartialDataWarning describes an observation excluded from the evaluation
type PartialDataWarning struct {
	StationID string
	Reason    string
}

func (w PartialDataWarning) String() string {
	id := w.StationID
	if id == "" {
		id = "(unidentified station)"
	}
	return fmt.Sprintf("excluded %s: %s", id, w.Reason)
}
