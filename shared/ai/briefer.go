package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flightwx/internal/models"
	"flightwx/shared/config"
	"flightwx/shared/logger"

	"google.golang.org/genai"
)

// ErrBriefingDisabled is returned by NewBriefer when no Gemini API key is configured
var ErrBriefingDisabled = errors.New("ai briefing disabled: no Gemini API key")

// Briefer writes a short plain-language weather briefing for a ceiling check report.
// The briefing is informational; it never changes the verdict.
type Briefer struct {
	model    string
	logger   *logger.Logger
	generate func(ctx context.Context, prompt string) (string, error)
}

func NewBriefer(cfg *config.Config, log *logger.Logger) (*Briefer, error) {
	if cfg.AI.GeminiAPIKey == "" {
		return nil, ErrBriefingDisabled
	}

	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	b := &Briefer{
		model:  cfg.AI.Model,
		logger: log.Named("briefer"),
	}
	b.generate = func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
		}

		result, err := client.Models.GenerateContent(ctx, b.model, contents, nil)
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	}

	return b, nil
}

// Brief asks the model for a briefing of report and returns it as display text
func (b *Briefer) Brief(ctx context.Context, report *models.FlightReport) (string, error) {
	if report == nil || report.Verdict == nil {
		return "", fmt.Errorf("report with a verdict is required")
	}

	prompt := buildBriefingPrompt(report)

	responseText, err := b.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate briefing for %s: %w", report.StationID, err)
	}
	if responseText == "" {
		return "", fmt.Errorf("empty briefing response for %s", report.StationID)
	}

	briefing, sanitized, err := parseBriefingResponse(responseText)
	if err != nil {
		return "", fmt.Errorf("failed to parse briefing response for %s: %w", report.StationID, err)
	}
	if sanitized {
		b.logger.Warn("Had to sanitize malformed briefing JSON", logger.String("station", report.StationID))
	}

	return briefing.text(), nil
}

type briefingResponse struct {
	Headline   string   `json:"headline"`
	Briefing   string   `json:"briefing"`
	WatchItems []string `json:"watch_items"`
}

func (r briefingResponse) text() string {
	var sb strings.Builder
	sb.WriteString(r.Headline)
	if r.Briefing != "" {
		sb.WriteString("\n\n")
		sb.WriteString(r.Briefing)
	}
	if len(r.WatchItems) > 0 {
		sb.WriteString("\n\nWatch: ")
		sb.WriteString(strings.Join(r.WatchItems, "; "))
	}
	return sb.String()
}

func buildBriefingPrompt(report *models.FlightReport) string {
	v := report.Verdict

	var stations strings.Builder
	for _, s := range v.ContributingStations {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		ceiling := "no ceiling"
		if s.HasCeiling {
			ceiling = fmt.Sprintf("ceiling %.0f ft MSL", s.CeilingFtMSL)
		}
		raw := s.Observation.RawText
		if raw == "" {
			raw = "(no raw text)"
		}
		fmt.Fprintf(&stations, "- %s %.1f nm, %s, %s: %s\n", s.Observation.StationID, s.DistanceNM, ceiling, status, raw)
	}
	if stations.Len() == 0 {
		stations.WriteString("- none\n")
	}

	taf := "not available"
	if report.TAF != nil && report.TAF.RawText != "" {
		taf = report.TAF.RawText
	}

	sun := "not computed"
	if report.SunWindow != nil {
		if report.SunWindow.HasWindow {
			sun = fmt.Sprintf("sun at or above %.0f° from %s to %s local",
				report.SunWindow.MinElevationDeg,
				report.SunWindow.Start.Format("15:04"),
				report.SunWindow.End.Format("15:04"))
		} else {
			sun = fmt.Sprintf("sun never reaches %.0f° today", report.SunWindow.MinElevationDeg)
		}
	}

	return fmt.Sprintf(`You are an assistant writing a morning weather briefing for an aerial imagery flight crew.

The go/no-go decision has already been made by a deterministic rule and MUST NOT be changed or second-guessed.

FLIGHT:
Launch: %s (%s)
Collection altitude: %.0f ft MSL
Required cloud base: %.0f ft MSL (collection altitude plus %.0f ft buffer)
Search radius: %.0f nm
Decision: %s

STATIONS WITHIN RADIUS:
%s
LAUNCH AIRPORT TAF:
%s

SUN ELEVATION:
%s

INSTRUCTIONS:
1. Summarize the cloud situation around the launch point in plain language
2. Use the TAF to say whether conditions look to improve or deteriorate today
3. Mention timing relative to the sun window if it matters
4. Keep it under 120 words

Please respond in the following JSON format:
{
  "headline": "One sentence headline",
  "briefing": "Short paragraph briefing",
  "watch_items": ["Things the crew should keep an eye on"]
}`,
		report.LocationName,
		report.StationID,
		report.Parameters.CollectionAltitudeFtMSL,
		v.RequiredBaseFtMSL,
		report.Parameters.SafetyBufferFt,
		report.Parameters.SearchRadiusNM,
		v.Decision,
		stations.String(),
		taf,
		sun,
	)
}

// parseBriefingResponse extracts the JSON object from a model response.
// The bool result reports whether the JSON had to be sanitized first.
func parseBriefingResponse(response string) (*briefingResponse, bool, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, false, fmt.Errorf("no JSON found in response: %s", truncateString(response, 200))
	}

	jsonStr := response[startIdx : endIdx+1]
	sanitized := false

	var result briefingResponse
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		if sanitizedErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &result); sanitizedErr != nil {
			return nil, false, fmt.Errorf("failed to unmarshal JSON: %w (sanitized version also failed: %v)", err, sanitizedErr)
		}
		sanitized = true
	}

	if result.Headline == "" {
		return nil, false, fmt.Errorf("briefing headline is required but was empty")
	}

	return &result, sanitized, nil
}

// sanitizeJSON escapes stray quotes inside single-line string values, the most
// common defect in model-written JSON
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	sanitizedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			sanitizedLines = append(sanitizedLines, line)
			continue
		}

		key := line[:colonIdx+1]
		value := strings.TrimSpace(line[colonIdx+1:])

		if strings.HasPrefix(value, "\"") {
			lastQuoteIdx := strings.LastIndex(value, "\"")
			if lastQuoteIdx > 0 {
				content := value[1:lastQuoteIdx]
				content = strings.ReplaceAll(content, `\"`, `"`)
				content = strings.ReplaceAll(content, `"`, `\"`)
				line = key + " \"" + content + "\"" + value[lastQuoteIdx+1:]
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
