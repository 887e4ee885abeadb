package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"flightwx/internal/models"
	"flightwx/shared/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Notification policies for the ceiling check report email
const (
	NotifyGoOnly   = "go_only"
	NotifyAlways   = "always"
	NotifyOnChange = "on_change"
)

type Config struct {
	CeilingCheck CeilingCheckConfig `yaml:"ceiling_check"`
	AI           AIConfig           `yaml:"ai"`
	Email        EmailConfig        `yaml:"email"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Logging      logger.Config      `yaml:"logging"`
	Storage      StorageConfig      `yaml:"storage"`
	Schedule     string             `yaml:"schedule"`
}

type CeilingCheckConfig struct {
	LaunchName      string  `yaml:"launch_name"`
	LaunchStationID string  `yaml:"launch_station_id"`
	LaunchLatitude  float64 `yaml:"launch_latitude"`
	LaunchLongitude float64 `yaml:"launch_longitude"`
	Timezone        string  `yaml:"timezone"`

	CollectionAltitudeFtMSL float64 `yaml:"collection_altitude_ft_msl"`
	SafetyBufferFt          float64 `yaml:"safety_buffer_ft"`
	SearchRadiusNM          float64 `yaml:"search_radius_nm"`
	MinSunElevationDeg      float64 `yaml:"min_sun_elevation_deg"`

	SourceFormat          string  `yaml:"source_format"` // json or xml
	WeatherURL            string  `yaml:"weather_url"`
	LegacyWeatherURL      string  `yaml:"legacy_weather_url"`
	HoursBeforeNow        int     `yaml:"hours_before_now"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
	RequestsPerSecond     float64 `yaml:"requests_per_second"`
	FetchTAF              *bool   `yaml:"fetch_taf"`

	NotifyPolicy string `yaml:"notify_policy"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	return LoadFile(configFile)
}

// LoadFile reads, defaults and validates a specific config file
func LoadFile(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

func (c *Config) applyDefaults() {
	defaults := models.DefaultFlightParameters()
	cc := &c.CeilingCheck

	if cc.LaunchName == "" {
		cc.LaunchName = "Illinois Valley Regional"
	}
	if cc.LaunchStationID == "" {
		cc.LaunchStationID = "KVYS"
	}
	if cc.LaunchLatitude == 0 && cc.LaunchLongitude == 0 {
		cc.LaunchLatitude = defaults.LaunchPoint.Latitude
		cc.LaunchLongitude = defaults.LaunchPoint.Longitude
	}
	if cc.Timezone == "" {
		cc.Timezone = "America/Chicago"
	}
	if cc.CollectionAltitudeFtMSL == 0 {
		cc.CollectionAltitudeFtMSL = defaults.CollectionAltitudeFtMSL
	}
	if cc.SafetyBufferFt == 0 {
		cc.SafetyBufferFt = defaults.SafetyBufferFt
	}
	if cc.SearchRadiusNM == 0 {
		cc.SearchRadiusNM = defaults.SearchRadiusNM
	}
	if cc.MinSunElevationDeg == 0 {
		cc.MinSunElevationDeg = 30
	}
	if cc.SourceFormat == "" {
		cc.SourceFormat = "json"
	}
	if cc.WeatherURL == "" {
		cc.WeatherURL = "https://aviationweather.gov/api/data"
	}
	if cc.LegacyWeatherURL == "" {
		cc.LegacyWeatherURL = "https://aviationweather.gov/cgi-bin/data/dataserver.php"
	}
	if cc.HoursBeforeNow == 0 {
		cc.HoursBeforeNow = 2
	}
	if cc.RequestTimeoutSeconds == 0 {
		cc.RequestTimeoutSeconds = 30
	}
	if cc.RequestsPerSecond == 0 {
		cc.RequestsPerSecond = 1
	}
	if cc.FetchTAF == nil {
		fetch := true
		cc.FetchTAF = &fetch
	}
	if cc.NotifyPolicy == "" {
		cc.NotifyPolicy = NotifyGoOnly
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 6 * * *" // Daily at 6 AM, before the morning collection window
	}
}

func (c *Config) validate() error {
	if c.Email.Username == "" {
		return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
	}
	return c.ValidateCeilingCheck()
}

// ValidateCeilingCheck checks the ceiling check section on its own
func (c *Config) ValidateCeilingCheck() error {
	cc := c.CeilingCheck

	if cc.LaunchLatitude < -90 || cc.LaunchLatitude > 90 {
		return fmt.Errorf("launch_latitude must be within [-90, 90], got %v", cc.LaunchLatitude)
	}
	if cc.LaunchLongitude < -180 || cc.LaunchLongitude > 180 {
		return fmt.Errorf("launch_longitude must be within [-180, 180], got %v", cc.LaunchLongitude)
	}
	if cc.CollectionAltitudeFtMSL < 0 {
		return fmt.Errorf("collection_altitude_ft_msl must not be negative, got %v", cc.CollectionAltitudeFtMSL)
	}
	if cc.SafetyBufferFt < 0 {
		return fmt.Errorf("safety_buffer_ft must not be negative, got %v", cc.SafetyBufferFt)
	}
	if cc.SearchRadiusNM <= 0 {
		return fmt.Errorf("search_radius_nm must be greater than zero, got %v", cc.SearchRadiusNM)
	}
	if _, err := time.LoadLocation(cc.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cc.Timezone, err)
	}

	switch strings.ToLower(cc.SourceFormat) {
	case "json", "xml":
	default:
		return fmt.Errorf("source_format must be json or xml, got %q", cc.SourceFormat)
	}

	switch cc.NotifyPolicy {
	case NotifyGoOnly, NotifyAlways, NotifyOnChange:
	default:
		return fmt.Errorf("notify_policy must be %s, %s or %s, got %q", NotifyGoOnly, NotifyAlways, NotifyOnChange, cc.NotifyPolicy)
	}

	return nil
}

// FlightParameters builds the decision engine input from the ceiling check section
func (c *Config) FlightParameters() models.FlightParameters {
	return models.FlightParameters{
		CollectionAltitudeFtMSL: c.CeilingCheck.CollectionAltitudeFtMSL,
		SafetyBufferFt:          c.CeilingCheck.SafetyBufferFt,
		SearchRadiusNM:          c.CeilingCheck.SearchRadiusNM,
		LaunchPoint: models.LaunchPoint{
			Latitude:  c.CeilingCheck.LaunchLatitude,
			Longitude: c.CeilingCheck.LaunchLongitude,
		},
	}
}

// Location returns the launch site's time zone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.CeilingCheck.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TAFEnabled reports whether the launch airport TAF should be fetched
func (c *Config) TAFEnabled() bool {
	return c.CeilingCheck.FetchTAF == nil || *c.CeilingCheck.FetchTAF
}
