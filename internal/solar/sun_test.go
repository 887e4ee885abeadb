package solar

import (
	"math"
	"testing"
	"time"
)

const (
	kvysLat = 41.3514
	kvysLon = -89.1531
)

func TestElevationAtSolarNoon(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		expected  float64 // 90 - latitude + declination
		tolerance float64
	}{
		{"Summer solstice", time.Date(2024, 6, 20, 17, 58, 0, 0, time.UTC), 72.1, 0.5},
		{"Equinox", time.Date(2024, 3, 20, 18, 5, 0, 0, time.UTC), 48.7, 0.7},
		{"Winter solstice", time.Date(2024, 12, 21, 17, 54, 0, 0, time.UTC), 25.2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Elevation(kvysLat, kvysLon, tt.at)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("Elevation() = %.2f, want %.2f ± %.1f", got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestElevationAtMidnightIsNegative(t *testing.T) {
	midnight := time.Date(2024, 6, 20, 5, 58, 0, 0, time.UTC)
	if got := Elevation(kvysLat, kvysLon, midnight); got >= 0 {
		t.Errorf("Expected the sun below the horizon at local midnight, got %.2f", got)
	}
}

func TestWindow(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	summer := Window(kvysLat, kvysLon, time.Date(2024, 6, 20, 9, 0, 0, 0, chicago), DefaultMinElevationDeg)
	if !summer.HasWindow {
		t.Fatal("Expected a 30° window in June")
	}
	if summer.Start.Hour() < 7 || summer.Start.Hour() > 10 {
		t.Errorf("Unexpected window start %s", summer.Start.Format("15:04 MST"))
	}
	if summer.End.Hour() < 15 || summer.End.Hour() > 18 {
		t.Errorf("Unexpected window end %s", summer.End.Format("15:04 MST"))
	}
	if !summer.Start.Before(summer.End) {
		t.Errorf("Window start %v should be before end %v", summer.Start, summer.End)
	}
	if math.Abs(summer.PeakElevation-72.1) > 0.5 {
		t.Errorf("Expected peak elevation near 72°, got %.2f", summer.PeakElevation)
	}
	if summer.Date.Hour() != 0 || summer.Date.Location() != chicago {
		t.Errorf("Expected window date at local midnight, got %v", summer.Date)
	}

	winter := Window(kvysLat, kvysLon, time.Date(2024, 12, 21, 9, 0, 0, 0, chicago), DefaultMinElevationDeg)
	if winter.HasWindow {
		t.Errorf("Sun never reaches 30° at KVYS in late December, got window %v - %v", winter.Start, winter.End)
	}
	if winter.PeakElevation >= DefaultMinElevationDeg {
		t.Errorf("Expected winter peak below 30°, got %.2f", winter.PeakElevation)
	}
}
