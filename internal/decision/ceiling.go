package decision

import "flightwx/internal/models"

// FeetPerMeter converts station elevation to feet
const FeetPerMeter = 3.28084

// EffectiveCeiling returns the lowest base among ceiling layers (BKN, OVC, OVX).
// Layer order is not trusted. ok is false when no layer forms a ceiling.
func EffectiveCeiling(layers []models.SkyLayer) (baseFtAGL int, ok bool) {
	for _, layer := range layers {
		if !layer.Cover.IsCeiling() {
			continue
		}
		if !ok || layer.BaseFtAGL < baseFtAGL {
			baseFtAGL = layer.BaseFtAGL
			ok = true
		}
	}
	return baseFtAGL, ok
}

// CeilingMSL converts a ceiling above the reporting station to feet above sea level
// using that station's own elevation.
func CeilingMSL(baseFtAGL int, stationElevationM float64) float64 {
	return float64(baseFtAGL) + stationElevationM*FeetPerMeter
}
