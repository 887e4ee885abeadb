package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimestampsAlwaysEncoded(t *testing.T) {
	tests := []struct {
		name  string
		value any
		key   string
	}{
		{"observation without time", Observation{StationID: "KVYS"}, `"observed_at":"0001-01-01T00:00:00Z"`},
		{"TAF without issue time", TAF{StationID: "KVYS"}, `"issued_at":"0001-01-01T00:00:00Z"`},
		{"observation with time", Observation{ObservedAt: time.Date(2026, 10, 17, 11, 53, 0, 0, time.UTC)}, `"observed_at":"2026-10-17T11:53:00Z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !strings.Contains(string(data), tt.key) {
				t.Errorf("Expected %s in %s", tt.key, data)
			}
		})
	}
}

func TestVerdictHelpers(t *testing.T) {
	v := &Verdict{
		Decision: DecisionNoGo,
		ContributingStations: []StationResult{
			{Observation: Observation{StationID: "KVYS"}, Passed: true},
			{Observation: Observation{StationID: "KPIA"}, Passed: false},
		},
	}

	if v.IsGo() {
		t.Error("NO_GO verdict should not be GO")
	}
	var nilVerdict *Verdict
	if nilVerdict.IsGo() {
		t.Error("Nil verdict should not be GO")
	}

	failing := v.FailingStations()
	if len(failing) != 1 || failing[0].Observation.StationID != "KPIA" {
		t.Errorf("Expected KPIA failing, got %+v", failing)
	}

	if got := DefaultFlightParameters().RequiredBaseFtMSL(); got != 9000 {
		t.Errorf("Expected required base 9000, got %v", got)
	}
}

func TestParseFlightCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected FlightCategory
	}{
		{"VFR", CategoryVFR},
		{"LIFR", CategoryLIFR},
		{"", CategoryUnknown},
		{"vfr", CategoryUnknown},
		{"XYZ", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFlightCategory(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
