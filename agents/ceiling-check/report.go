package ceilingcheck

import (
	"fmt"

	"flightwx/internal/models"
	"flightwx/shared/email"
)

// sendEmailReport sends a ceiling check report via email
func (a *CeilingAgent) sendEmailReport(report *models.FlightReport) error {
	body, err := RenderReport(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return a.notifier.SendHTML(reportSubject(report), body)
}

func reportSubject(report *models.FlightReport) string {
	if report.Verdict.IsGo() {
		return fmt.Sprintf("✈️ GO for imagery collection at %s (%s)", report.LocationName, report.Date.Format("Jan 2"))
	}
	return fmt.Sprintf("⛔ NO-GO for imagery collection at %s (%s)", report.LocationName, report.Date.Format("Jan 2"))
}

// RenderReport creates the HTML email content for a ceiling check report
func RenderReport(report *models.FlightReport) (string, error) {
	return email.RenderHTML("ceiling-report", reportTemplate, report)
}

const reportTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Ceiling Check Report</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2196F3; color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; text-align: center; }
        .go { background-color: #E8F5E8; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #4CAF50; }
        .nogo { background-color: #FDECEA; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #F44336; }
        .section { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
        .pass { color: #4CAF50; font-weight: bold; }
        .fail { color: #F44336; font-weight: bold; }
        .warning { color: #FF9800; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #ddd; font-size: 14px; }
        pre { white-space: pre-wrap; font-size: 13px; background: #fff; padding: 10px; border-radius: 4px; }
        .metric { display: inline-block; margin: 10px 15px 10px 0; }
        .metric-label { font-weight: bold; color: #666; }
        .metric-value { font-size: 18px; color: #2196F3; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; border-top: 1px solid #ddd; padding-top: 15px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Ceiling Check Report</h1>
        <h2>{{.LocationName}} ({{.StationID}})</h2>
        <p>{{.Date.Format "Monday, January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    <div class="{{if .Verdict.IsGo}}go{{else}}nogo{{end}}">
        <h2>{{if .Verdict.IsGo}}✅ GO{{else}}⛔ NO-GO{{end}}</h2>
        <p>{{.Summary}}</p>
        {{if .Verdict.Reasons}}
        <ul>
        {{range .Verdict.Reasons}}
            <li>{{.}}</li>
        {{end}}
        </ul>
        {{end}}
    </div>

    <div class="section">
        <h3>Flight Parameters</h3>
        <div class="metric">
            <div class="metric-label">Collection Altitude</div>
            <div class="metric-value">{{printf "%.0f ft MSL" .Parameters.CollectionAltitudeFtMSL}}</div>
        </div>
        <div class="metric">
            <div class="metric-label">Required Base</div>
            <div class="metric-value">{{printf "%.0f ft MSL" .Verdict.RequiredBaseFtMSL}}</div>
        </div>
        <div class="metric">
            <div class="metric-label">Search Radius</div>
            <div class="metric-value">{{printf "%.0f nm" .Parameters.SearchRadiusNM}}</div>
        </div>
    </div>

    <div class="section">
        <h3>Stations</h3>
        {{if .Verdict.ContributingStations}}
        <table>
            <tr><th>Station</th><th>Distance</th><th>Category</th><th>Ceiling</th><th>Result</th></tr>
            {{range .Verdict.ContributingStations}}
            <tr>
                <td>{{.Observation.StationID}}</td>
                <td>{{printf "%.1f nm" .DistanceNM}}</td>
                <td>{{.Observation.FlightCategory}}</td>
                <td>{{if .HasCeiling}}{{printf "%.0f ft MSL" .CeilingFtMSL}} ({{.CeilingFtAGL}} ft AGL){{else}}none{{end}}</td>
                <td>{{if .Passed}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <p class="fail">No stations reporting within radius</p>
        {{end}}
        {{if .Verdict.Warnings}}
        <p><strong>Excluded or incomplete reports:</strong></p>
        <ul>
        {{range .Verdict.Warnings}}
            <li class="warning">{{.}}</li>
        {{end}}
        </ul>
        {{end}}
    </div>

    {{if .SunWindow}}
    <div class="section">
        <h3>☀️ Sun Elevation Window (≥{{printf "%.0f" .SunWindow.MinElevationDeg}}°)</h3>
        {{if .SunWindow.HasWindow}}
        <p>{{.SunWindow.Start.Format "3:04 PM"}} – {{.SunWindow.End.Format "3:04 PM MST"}}, peak {{printf "%.1f" .SunWindow.PeakElevation}}°</p>
        {{else}}
        <p class="warning">The sun does not reach {{printf "%.0f" .SunWindow.MinElevationDeg}}° today (peak {{printf "%.1f" .SunWindow.PeakElevation}}°)</p>
        {{end}}
    </div>
    {{end}}

    {{if .TAF}}
    <div class="section">
        <h3>📡 Terminal Forecast ({{.TAF.StationID}})</h3>
        <pre>{{.TAF.RawText}}</pre>
    </div>
    {{end}}

    {{if .Briefing}}
    <div class="section">
        <h3>🌤️ Briefing</h3>
        <pre>{{.Briefing}}</pre>
    </div>
    {{end}}

    <div class="footer">
        <p>Generated by Ceiling Check Agent • Weather data from aviationweather.gov</p>
        <p style="font-style: italic; color: #888; margin: 15px 0;">"Verify with an official briefing before flight"</p>
        <p>Run {{.RunID}}</p>
    </div>
</body>
</html>
`
