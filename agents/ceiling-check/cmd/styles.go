package main

import (
	"fmt"
	"strings"

	"flightwx/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	GoStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2E7D32")).Padding(0, 2)
	NoGoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C62828")).Padding(0, 2)
	PassStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5733"))
	BoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
)

// renderVerdict formats a verdict for the terminal; taf and sun may be nil
func renderVerdict(v *models.Verdict, summary string, taf *models.TAF, sun *models.SunWindow) string {
	var sb strings.Builder

	if v.IsGo() {
		sb.WriteString(GoStyle.Render("GO"))
	} else {
		sb.WriteString(NoGoStyle.Render("NO-GO"))
	}
	sb.WriteString("  " + summary + "\n\n")

	for _, s := range v.ContributingStations {
		ceiling := DimStyle.Render("no ceiling")
		if s.HasCeiling {
			ceiling = fmt.Sprintf("%.0f ft MSL (%d AGL)", s.CeilingFtMSL, s.CeilingFtAGL)
		}
		result := PassStyle.Render("PASS")
		if !s.Passed {
			result = FailStyle.Render("FAIL")
		}
		fmt.Fprintf(&sb, "%-5s %6.1f nm  %-5s %-24s %s\n",
			s.Observation.StationID, s.DistanceNM, s.Observation.FlightCategory, ceiling, result)
	}

	for _, reason := range v.Reasons {
		sb.WriteString("\n" + FailStyle.Render("• ") + reason)
	}
	for _, warning := range v.Warnings {
		sb.WriteString("\n" + WarningStyle.Render("! "+warning))
	}

	if sun != nil {
		if sun.HasWindow {
			fmt.Fprintf(&sb, "\n\nSun ≥%.0f°: %s – %s", sun.MinElevationDeg, sun.Start.Format("15:04"), sun.End.Format("15:04 MST"))
		} else {
			fmt.Fprintf(&sb, "\n\nSun never reaches %.0f° (peak %.1f°)", sun.MinElevationDeg, sun.PeakElevation)
		}
	}
	if taf != nil && taf.RawText != "" {
		sb.WriteString("\n\n" + DimStyle.Render(taf.RawText))
	}

	return BoxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
