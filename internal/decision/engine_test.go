package decision

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"flightwx/internal/models"
)

func testParams() models.FlightParameters {
	return models.FlightParameters{
		CollectionAltitudeFtMSL: 8500,
		SafetyBufferFt:          500,
		SearchRadiusNM:          50,
		LaunchPoint:             models.LaunchPoint{Latitude: 41.3514, Longitude: -89.1531},
	}
}

// station returns an observation placed at the launch point
func station(id string, elevationM float64, layers ...models.SkyLayer) models.Observation {
	return models.Observation{
		StationID:      id,
		Latitude:       41.3514,
		Longitude:      -89.1531,
		ElevationM:     elevationM,
		SkyLayers:      layers,
		FlightCategory: models.CategoryVFR,
	}
}

func layer(cover models.Cover, base int) models.SkyLayer {
	return models.SkyLayer{Cover: cover, BaseFtAGL: base}
}

func TestEvaluateNoObservationsIsNoGo(t *testing.T) {
	paramSets := []models.FlightParameters{
		testParams(),
		{CollectionAltitudeFtMSL: 0, SafetyBufferFt: 0, SearchRadiusNM: 1},
		{CollectionAltitudeFtMSL: 12000, SafetyBufferFt: 1000, SearchRadiusNM: 500},
	}

	for _, params := range paramSets {
		verdict, err := Evaluate(nil, params)
		if err != nil {
			t.Fatalf("Evaluate() unexpected error: %v", err)
		}
		if verdict.Decision != models.DecisionNoGo {
			t.Errorf("Expected NO_GO with no observations, got %s", verdict.Decision)
		}
		if len(verdict.Reasons) != 1 || verdict.Reasons[0] != NoStationsReason {
			t.Errorf("Expected reason %q, got %v", NoStationsReason, verdict.Reasons)
		}
		if len(verdict.ContributingStations) != 0 {
			t.Errorf("Expected no contributing stations, got %d", len(verdict.ContributingStations))
		}
	}
}

func TestEvaluateConcreteScenario(t *testing.T) {
	tests := []struct {
		name           string
		base           int
		expectDecision models.Decision
		expectReasons  int
	}{
		{"Broken layer below required MSL", 8000, models.DecisionNoGo, 1},
		{"Broken layer above required MSL", 9500, models.DecisionGo, 0},
		{"Broken layer exactly at required MSL", 9000, models.DecisionGo, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := []models.Observation{station("KVYS", 0, layer(models.CoverBroken, tt.base))}

			verdict, err := Evaluate(obs, testParams())
			if err != nil {
				t.Fatalf("Evaluate() unexpected error: %v", err)
			}

			if verdict.RequiredBaseFtMSL != 9000 {
				t.Errorf("Expected required base 9000 ft MSL, got %.1f", verdict.RequiredBaseFtMSL)
			}
			if verdict.Decision != tt.expectDecision {
				t.Errorf("Expected decision %s, got %s", tt.expectDecision, verdict.Decision)
			}
			if len(verdict.Reasons) != tt.expectReasons {
				t.Fatalf("Expected %d reasons, got %d: %v", tt.expectReasons, len(verdict.Reasons), verdict.Reasons)
			}
			if tt.expectReasons > 0 && !strings.Contains(verdict.Reasons[0], "KVYS") {
				t.Errorf("Expected reason to name KVYS, got %q", verdict.Reasons[0])
			}
		})
	}
}

func TestEvaluateUnanimityRule(t *testing.T) {
	passing := []models.Observation{
		station("KVYS", 200, layer(models.CoverOvercast, 10000)),
		station("KPIA", 230, layer(models.CoverBroken, 12000)),
		station("KMLI", 180, layer(models.CoverScattered, 3000)),
	}

	verdict, err := Evaluate(passing, testParams())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionGo {
		t.Fatalf("Expected GO when all stations pass, got %s: %v", verdict.Decision, verdict.Reasons)
	}
	if len(verdict.Reasons) != 0 {
		t.Errorf("Expected no reasons on GO, got %v", verdict.Reasons)
	}

	withFailing := append(append([]models.Observation{}, passing...), station("KRPJ", 240, layer(models.CoverBroken, 2500)))

	verdict, err = Evaluate(withFailing, testParams())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionNoGo {
		t.Fatalf("Expected one failing station to flip the verdict to NO_GO")
	}
	if len(verdict.Reasons) != 1 || !strings.Contains(verdict.Reasons[0], "KRPJ") {
		t.Errorf("Expected a single reason naming KRPJ, got %v", verdict.Reasons)
	}

	failing := verdict.FailingStations()
	if len(failing) != 1 || failing[0].Observation.StationID != "KRPJ" {
		t.Errorf("Expected KRPJ as the only failing station, got %+v", failing)
	}
}

func TestEvaluateNoCeilingStationsNeverBlock(t *testing.T) {
	obs := []models.Observation{
		station("KVYS", 0, layer(models.CoverFew, 500), layer(models.CoverScattered, 800)),
		station("KPIA", 0),
		station("KMLI", 0, layer(models.CoverClear, 0)),
	}

	params := testParams()
	params.CollectionAltitudeFtMSL = 17000

	verdict, err := Evaluate(obs, params)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionGo {
		t.Errorf("Expected GO for stations without a ceiling, got %s: %v", verdict.Decision, verdict.Reasons)
	}
	for _, s := range verdict.ContributingStations {
		if s.HasCeiling {
			t.Errorf("Station %s should have no ceiling", s.Observation.StationID)
		}
		if !s.Passed {
			t.Errorf("Station %s without a ceiling should pass", s.Observation.StationID)
		}
	}
}

func TestEvaluateRadiusFiltering(t *testing.T) {
	params := testParams()
	launch := params.LaunchPoint

	far := models.Observation{
		StationID: "KORD",
		Latitude:  41.9786,
		Longitude: -87.9048,
		SkyLayers: []models.SkyLayer{layer(models.CoverOvercast, 300)},
	}
	distance := DistanceFromLaunch(launch, far)
	if distance <= params.SearchRadiusNM {
		t.Fatalf("Test setup: KORD should be outside %.0f nm, is %.1f nm", params.SearchRadiusNM, distance)
	}

	verdict, err := Evaluate([]models.Observation{station("KVYS", 0), far}, params)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionGo {
		t.Errorf("Station outside radius must not affect the decision, got %s: %v", verdict.Decision, verdict.Reasons)
	}
	if len(verdict.ContributingStations) != 1 || verdict.ContributingStations[0].Observation.StationID != "KVYS" {
		t.Errorf("Expected only KVYS to contribute, got %+v", verdict.ContributingStations)
	}

	params.SearchRadiusNM = distance
	verdict, err = Evaluate([]models.Observation{far}, params)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if len(verdict.ContributingStations) != 1 {
		t.Fatalf("Station exactly at the radius boundary should be included")
	}
	if verdict.Decision != models.DecisionNoGo {
		t.Errorf("Expected boundary station's low ceiling to give NO_GO, got %s", verdict.Decision)
	}
}

func TestEvaluateUsesStationElevation(t *testing.T) {
	obs := []models.Observation{station("KVYS", 100, layer(models.CoverBroken, 5000))}

	params := testParams()
	params.CollectionAltitudeFtMSL = 4000

	verdict, err := Evaluate(obs, params)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}

	got := verdict.ContributingStations[0].CeilingFtMSL
	if math.Abs(got-5328.084) > 0.001 {
		t.Errorf("Expected ceiling 5328.084 ft MSL, got %.3f", got)
	}
	if verdict.ContributingStations[0].CeilingFtAGL != 5000 {
		t.Errorf("Expected ceiling 5000 ft AGL, got %d", verdict.ContributingStations[0].CeilingFtAGL)
	}

	// 5300 ft MSL required: 5000 ft AGL alone would fail, the station elevation lifts it to 5328
	params.CollectionAltitudeFtMSL = 4800
	verdict, err = Evaluate(obs, params)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionGo {
		t.Errorf("Expected station elevation to lift the ceiling above 5300 ft MSL, got %s: %v", verdict.Decision, verdict.Reasons)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	obs := []models.Observation{
		station("KVYS", 200, layer(models.CoverBroken, 4000), layer(models.CoverOvercast, 9000)),
		station("KPIA", 150, layer(models.CoverFew, 2000)),
		{StationID: "", Latitude: 41, Longitude: -89},
	}

	first, err := Evaluate(obs, testParams())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	second, err := Evaluate(obs, testParams())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical verdicts, got %+v and %+v", first, second)
	}
}

func TestEvaluateExcludesMalformedObservations(t *testing.T) {
	tests := []struct {
		name string
		obs  models.Observation
	}{
		{"Missing station id", models.Observation{Latitude: 41.35, Longitude: -89.15}},
		{"Missing latitude", models.Observation{StationID: "KAAA", Latitude: math.NaN(), Longitude: -89.15}},
		{"Out of range longitude", models.Observation{StationID: "KBBB", Latitude: 41.35, Longitude: 200}},
		{"Negative cloud base", station("KCCC", 0, layer(models.CoverBroken, -100))},
		{"Invalid elevation", station("KDDD", math.Inf(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := []models.Observation{station("KVYS", 0), tt.obs}

			verdict, err := Evaluate(obs, testParams())
			if err != nil {
				t.Fatalf("Evaluate() should not fail on a malformed observation: %v", err)
			}
			if len(verdict.ContributingStations) != 1 {
				t.Errorf("Expected malformed observation to be excluded, got %d stations", len(verdict.ContributingStations))
			}
			if len(verdict.Warnings) != 1 {
				t.Errorf("Expected one warning for the excluded observation, got %v", verdict.Warnings)
			}
			if verdict.Decision != models.DecisionGo {
				t.Errorf("Expected GO from the remaining valid station, got %s", verdict.Decision)
			}
		})
	}
}

func TestEvaluateOnlyMalformedObservationsIsNoGo(t *testing.T) {
	obs := []models.Observation{{Latitude: math.NaN(), Longitude: math.NaN()}}

	verdict, err := Evaluate(obs, testParams())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if verdict.Decision != models.DecisionNoGo {
		t.Errorf("Expected NO_GO when no valid station remains, got %s", verdict.Decision)
	}
	if len(verdict.Warnings) != 1 {
		t.Errorf("Expected excluded observation to be reported, got %v", verdict.Warnings)
	}
}

func TestEvaluateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *models.FlightParameters)
		field  string
	}{
		{"Negative radius", func(p *models.FlightParameters) { p.SearchRadiusNM = -1 }, "search_radius_nm"},
		{"Zero radius", func(p *models.FlightParameters) { p.SearchRadiusNM = 0 }, "search_radius_nm"},
		{"Negative altitude", func(p *models.FlightParameters) { p.CollectionAltitudeFtMSL = -500 }, "collection_altitude_ft_msl"},
		{"Negative buffer", func(p *models.FlightParameters) { p.SafetyBufferFt = -1 }, "safety_buffer_ft"},
		{"NaN altitude", func(p *models.FlightParameters) { p.CollectionAltitudeFtMSL = math.NaN() }, "collection_altitude_ft_msl"},
		{"Launch latitude out of range", func(p *models.FlightParameters) { p.LaunchPoint.Latitude = 95 }, "launch_point.latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams()
			tt.modify(&params)

			verdict, err := Evaluate([]models.Observation{station("KVYS", 0)}, params)
			if err == nil {
				t.Fatalf("Expected ConfigurationError, got verdict %+v", verdict)
			}
			if verdict != nil {
				t.Errorf("Expected nil verdict on configuration error")
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigurationError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Expected error to wrap ErrInvalidParameters")
			}
		})
	}
}
