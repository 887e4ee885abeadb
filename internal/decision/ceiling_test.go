package decision

import (
	"math"
	"testing"

	"flightwx/internal/models"
)

func TestEffectiveCeiling(t *testing.T) {
	tests := []struct {
		name     string
		layers   []models.SkyLayer
		expected int
		expectOK bool
	}{
		{"No layers", nil, 0, false},
		{"Few and scattered only", []models.SkyLayer{layer(models.CoverFew, 1000), layer(models.CoverScattered, 2000)}, 0, false},
		{"Lowest broken wins", []models.SkyLayer{layer(models.CoverFew, 1000), layer(models.CoverBroken, 4000), layer(models.CoverOvercast, 7000)}, 4000, true},
		{"Order is not trusted", []models.SkyLayer{layer(models.CoverOvercast, 7000), layer(models.CoverBroken, 3500)}, 3500, true},
		{"Scattered below broken is ignored", []models.SkyLayer{layer(models.CoverScattered, 800), layer(models.CoverBroken, 6000)}, 6000, true},
		{"Vertical visibility counts", []models.SkyLayer{layer(models.CoverObscured, 200)}, 200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, ok := EffectiveCeiling(tt.layers)
			if ok != tt.expectOK {
				t.Fatalf("EffectiveCeiling() ok = %v, want %v", ok, tt.expectOK)
			}
			if base != tt.expected {
				t.Errorf("EffectiveCeiling() = %d, want %d", base, tt.expected)
			}
		})
	}
}

func TestCeilingMSL(t *testing.T) {
	if got := CeilingMSL(5000, 100); math.Abs(got-5328.084) > 1e-9 {
		t.Errorf("CeilingMSL(5000, 100) = %v, want 5328.084", got)
	}
	if got := CeilingMSL(8000, 0); got != 8000 {
		t.Errorf("CeilingMSL(8000, 0) = %v, want 8000", got)
	}
}

func TestDistanceNM(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name: "Same point",
			lat1: 41.3514, lon1: -89.1531,
			lat2: 41.3514, lon2: -89.1531,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name: "One degree of latitude",
			lat1: 41.0, lon1: -89.0,
			lat2: 42.0, lon2: -89.0,
			expected:  60.04, // 3440.065 * pi / 180
			tolerance: 0.01,
		},
		{
			name: "KVYS to KORD",
			lat1: 41.3514, lon1: -89.1531,
			lat2: 41.9786, lon2: -87.9048,
			expected:  68,
			tolerance: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DistanceNM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("DistanceNM() = %v, want %v ± %v", result, tt.expected, tt.tolerance)
			}
		})
	}
}
