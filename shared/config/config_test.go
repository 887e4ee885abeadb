package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("EMAIL_USERNAME", "pilot@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")
	t.Setenv("GEMINI_API_KEY", "")

	path := writeConfig(t, `
email:
  smtp_server: smtp.example.com
  from_email: wx@example.com
  to_email: ops@example.com
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}

	if cfg.Email.Username != "pilot@example.com" || cfg.Email.Password != "secret" {
		t.Errorf("Expected email credentials from environment, got %q/%q", cfg.Email.Username, cfg.Email.Password)
	}

	params := cfg.FlightParameters()
	if params.CollectionAltitudeFtMSL != 8500 || params.SafetyBufferFt != 500 || params.SearchRadiusNM != 50 {
		t.Errorf("Unexpected default flight parameters %+v", params)
	}
	if params.LaunchPoint.Latitude != 41.3514 || params.LaunchPoint.Longitude != -89.1531 {
		t.Errorf("Unexpected default launch point %+v", params.LaunchPoint)
	}
	if params.RequiredBaseFtMSL() != 9000 {
		t.Errorf("Expected required base 9000 ft MSL, got %v", params.RequiredBaseFtMSL())
	}

	cc := cfg.CeilingCheck
	if cc.LaunchStationID != "KVYS" || cc.SourceFormat != "json" || cc.NotifyPolicy != NotifyGoOnly {
		t.Errorf("Unexpected ceiling check defaults %+v", cc)
	}
	if !cfg.TAFEnabled() {
		t.Error("Expected TAF fetch enabled by default")
	}
	if cfg.Schedule != "0 0 6 * * *" {
		t.Errorf("Unexpected default schedule %q", cfg.Schedule)
	}
	if cfg.Monitoring.HealthPort != 8080 || cfg.Storage.DataDir != "data" || cfg.Logging.Level != "info" {
		t.Errorf("Unexpected ambient defaults: port=%d dir=%s level=%s", cfg.Monitoring.HealthPort, cfg.Storage.DataDir, cfg.Logging.Level)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
schedule: "0 30 5 * * *"
ceiling_check:
  launch_name: Peoria
  launch_station_id: KPIA
  launch_latitude: 40.6642
  launch_longitude: -89.6933
  collection_altitude_ft_msl: 10500
  safety_buffer_ft: 1000
  search_radius_nm: 30
  source_format: xml
  fetch_taf: false
  notify_policy: always
email:
  username: user
  password: pass
logging:
  level: debug
  format: json
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}

	params := cfg.FlightParameters()
	if params.RequiredBaseFtMSL() != 11500 || params.SearchRadiusNM != 30 {
		t.Errorf("Unexpected flight parameters %+v", params)
	}
	if cfg.CeilingCheck.SourceFormat != "xml" || cfg.CeilingCheck.NotifyPolicy != NotifyAlways {
		t.Errorf("Unexpected overrides %+v", cfg.CeilingCheck)
	}
	if cfg.TAFEnabled() {
		t.Error("Expected TAF fetch disabled")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name        string
		ceiling     string
		expectError string
	}{
		{"Negative radius", "search_radius_nm: -5", "search_radius_nm"},
		{"Negative altitude", "collection_altitude_ft_msl: -100", "collection_altitude_ft_msl"},
		{"Bad latitude", "launch_latitude: 123", "launch_latitude"},
		{"Bad format", "source_format: csv", "source_format"},
		{"Bad policy", "notify_policy: hourly", "notify_policy"},
		{"Bad timezone", "timezone: Mars/Olympus", "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "email:\n  username: u\n  password: p\nceiling_check:\n  "+tt.ceiling+"\n")

			_, err := LoadFile(path)
			if err == nil {
				t.Fatalf("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.expectError) {
				t.Errorf("Expected error mentioning %s, got %v", tt.expectError, err)
			}
		})
	}
}

func TestLoadFileRequiresEmailCredentials(t *testing.T) {
	t.Setenv("EMAIL_USERNAME", "")
	t.Setenv("EMAIL_PASSWORD", "")

	path := writeConfig(t, "ceiling_check:\n  launch_name: KVYS\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error when email credentials are missing")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
