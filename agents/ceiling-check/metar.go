package ceilingcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flightwx/internal/decision"
	"flightwx/internal/models"
	"flightwx/shared/config"
	"flightwx/shared/logger"

	"golang.org/x/time/rate"
)

// maxPayloadBytes bounds provider responses read into memory
const maxPayloadBytes = 16 << 20

const emptyXMLPayload = `<response><data num_results="0"></data></response>`

// BoundingBox is a lat/lon rectangle around the launch point
type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// bboxPaddingDeg widens the box so rounding in the request never clips a
// station sitting exactly on the radius
const bboxPaddingDeg = 0.01

// BoundingBoxAround returns the smallest lat/lon box containing every point
// within radiusNM great-circle distance of (lat, lon). The longitude
// half-width grows with latitude; when the circle reaches a pole the box spans
// all longitudes. The box is clamped to ±90/±180.
func BoundingBoxAround(lat, lon, radiusNM float64) BoundingBox {
	angular := radiusNM / decision.EarthRadiusNM // radians
	dLat := angular*180/math.Pi + bboxPaddingDeg

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}

	// a pole inside the circle, or sin(angular) >= cos(lat), means every longitude is reachable
	cosLat := math.Cos(lat * math.Pi / 180)
	if box.MaxLat >= 90 || box.MinLat <= -90 || math.Sin(angular) >= cosLat {
		return box
	}

	dLon := math.Asin(math.Sin(angular)/cosLat)*180/math.Pi + bboxPaddingDeg
	box.MinLon = math.Max(lon-dLon, -180)
	box.MaxLon = math.Min(lon+dLon, 180)
	return box
}

// METARClient fetches raw METAR and TAF payloads from aviationweather.gov
type METARClient struct {
	config  *config.CeilingCheckConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

func NewMETARClient(cfg *config.CeilingCheckConfig, log *logger.Logger) *METARClient {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &METARClient{
		config: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  log.Named("metar-client"),
	}
}

// Format is the payload format FetchMETARs returns ("json" or "xml")
func (c *METARClient) Format() string {
	return strings.ToLower(c.config.SourceFormat)
}

// FetchMETARs returns the raw provider payload of recent METARs inside box
func (c *METARClient) FetchMETARs(ctx context.Context, box BoundingBox) ([]byte, error) {
	if c.Format() == "xml" {
		return c.get(ctx, c.legacyMETARURL(box), []byte(emptyXMLPayload))
	}
	return c.get(ctx, c.metarURL(box), []byte("[]"))
}

func (c *METARClient) metarURL(box BoundingBox) string {
	params := url.Values{}
	params.Set("bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat))
	params.Set("format", "json")
	params.Set("hours", strconv.Itoa(c.config.HoursBeforeNow))

	return strings.TrimRight(c.config.WeatherURL, "/") + "/metar?" + params.Encode()
}

func (c *METARClient) legacyMETARURL(box BoundingBox) string {
	params := url.Values{}
	params.Set("dataSource", "metars")
	params.Set("requestType", "retrieve")
	params.Set("format", "xml")
	params.Set("hoursBeforeNow", strconv.Itoa(c.config.HoursBeforeNow))
	params.Set("boundingBox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon))

	return c.config.LegacyWeatherURL + "?" + params.Encode()
}

type tafRecord struct {
	IcaoID    string `json:"icaoId"`
	RawTAF    string `json:"rawTAF"`
	IssueTime string `json:"issueTime"`
}

// FetchTAF returns the latest TAF for stationID, or nil when none is published
func (c *METARClient) FetchTAF(ctx context.Context, stationID string) (*models.TAF, error) {
	params := url.Values{}
	params.Set("ids", stationID)
	params.Set("format", "json")
	endpoint := strings.TrimRight(c.config.WeatherURL, "/") + "/taf?" + params.Encode()

	body, err := c.get(ctx, endpoint, []byte("[]"))
	if err != nil {
		return nil, err
	}

	var records []tafRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode TAF response: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	record := records[0]
	taf := &models.TAF{
		StationID: record.IcaoID,
		RawText:   strings.TrimSpace(record.RawTAF),
	}
	if taf.StationID == "" {
		taf.StationID = stationID
	}
	if issued, err := time.Parse(time.RFC3339, record.IssueTime); err == nil {
		taf.IssuedAt = issued
	} else if issued, err := time.Parse("2006-01-02 15:04:05", record.IssueTime); err == nil {
		taf.IssuedAt = issued
	}

	return taf, nil
}

// get fetches endpoint; a 204 answer yields empty instead of an error
func (c *METARClient) get(ctx context.Context, endpoint string, empty []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	c.logger.Debug("Fetching weather data", logger.String("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}
	req.Header.Set("User-Agent", "flightwx/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return empty, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	return body, nil
}
