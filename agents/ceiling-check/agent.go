package ceilingcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flightwx/internal/decision"
	"flightwx/internal/models"
	"flightwx/internal/normalize"
	"flightwx/internal/solar"
	"flightwx/shared/ai"
	"flightwx/shared/config"
	"flightwx/shared/email"
	"flightwx/shared/logger"
	"flightwx/shared/scheduler"
	"flightwx/shared/storage"

	"github.com/google/uuid"
)

// notificationMaxAge is how long the tracker remembers sent verdicts
const notificationMaxAge = 7 * 24 * time.Hour

// CeilingMetrics represents the metrics collected during a ceiling check
type CeilingMetrics struct {
	Decision          models.Decision `json:"decision"`
	StationsEvaluated int             `json:"stations_evaluated"`
	StationsFailing   int             `json:"stations_failing"`
	Warnings          int             `json:"warnings"`
	TAFFetched        bool            `json:"taf_fetched"`
	BriefingAdded     bool            `json:"briefing_added"`
	Archived          bool            `json:"archived"`
	EmailSent         bool            `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m CeilingMetrics) GetSummary() string {
	mail := "no email sent"
	if m.EmailSent {
		mail = "email sent"
	}

	switch {
	case m.Decision == models.DecisionGo:
		return fmt.Sprintf("GO: %d stations clear, %s", m.StationsEvaluated, mail)
	case m.StationsEvaluated == 0:
		return fmt.Sprintf("NO_GO: no stations reporting within radius, %s", mail)
	default:
		return fmt.Sprintf("NO_GO: %d of %d stations below required base, %s", m.StationsFailing, m.StationsEvaluated, mail)
	}
}

// WeatherSource provides raw METAR payloads and the launch airport TAF
type WeatherSource interface {
	Format() string
	FetchMETARs(ctx context.Context, box BoundingBox) ([]byte, error)
	FetchTAF(ctx context.Context, stationID string) (*models.TAF, error)
}

// Briefer adds a plain-language briefing to a report
type Briefer interface {
	Brief(ctx context.Context, report *models.FlightReport) (string, error)
}

// ReportArchive stores every report produced
type ReportArchive interface {
	Save(ctx context.Context, report *models.FlightReport) error
}

// Notifier delivers the HTML report
type Notifier interface {
	SendHTML(subject, htmlBody string) error
}

// NotificationLog remembers which decisions were already sent
type NotificationLog interface {
	WasNotified(key string, decision models.Decision) bool
	LastDecision(key string) (models.Decision, bool)
	MarkNotified(key string, decision models.Decision) error
}

// CeilingAgent implements the scheduler.Agent interface
type CeilingAgent struct {
	config   *config.Config
	logger   *logger.Logger
	source   WeatherSource
	briefer  Briefer
	archive  ReportArchive
	notifier Notifier
	tracker  NotificationLog
	now      func() time.Time
}

// NewCeilingAgent creates the agent; archive may be nil to skip archiving
func NewCeilingAgent(cfg *config.Config, archive ReportArchive, log *logger.Logger) *CeilingAgent {
	return &CeilingAgent{
		config:  cfg,
		logger:  log.Named("ceiling-check"),
		archive: archive,
		now:     time.Now,
	}
}

func (a *CeilingAgent) Name() string {
	return "Ceiling Check Agent"
}

func (a *CeilingAgent) Initialize() error {
	a.logger.Info("Initializing agent", logger.String("agent", a.Name()))

	if err := a.config.ValidateCeilingCheck(); err != nil {
		return fmt.Errorf("invalid ceiling check configuration: %w", err)
	}
	if err := decision.ValidateParameters(a.config.FlightParameters()); err != nil {
		return err
	}

	if a.source == nil {
		a.source = NewMETARClient(&a.config.CeilingCheck, a.logger)
		a.logger.Info("Weather client initialized", logger.String("format", a.source.Format()))
	}

	if a.notifier == nil {
		a.notifier = email.NewSender(&a.config.Email)
	}

	if a.tracker == nil {
		tracker, err := storage.NewNotificationTracker(a.config.Storage.DataDir, notificationMaxAge)
		if err != nil {
			return fmt.Errorf("failed to initialize notification tracker: %w", err)
		}
		a.tracker = tracker
		a.logger.Debug("Notification tracker loaded", logger.Int("tracked_keys", tracker.Count()))
	}

	if a.briefer == nil {
		briefer, err := ai.NewBriefer(a.config, a.logger)
		switch {
		case errors.Is(err, ai.ErrBriefingDisabled):
			a.logger.Info("AI briefing disabled, no Gemini API key configured")
		case err != nil:
			return fmt.Errorf("failed to initialize briefer: %w", err)
		default:
			a.briefer = briefer
		}
	}

	cc := a.config.CeilingCheck
	a.logger.Info("Configured launch point",
		logger.String("name", cc.LaunchName),
		logger.String("station", cc.LaunchStationID),
		logger.Float64("latitude", cc.LaunchLatitude),
		logger.Float64("longitude", cc.LaunchLongitude),
		logger.Float64("required_base_ft_msl", a.config.FlightParameters().RequiredBaseFtMSL()),
		logger.Float64("radius_nm", cc.SearchRadiusNM))

	return nil
}

func (a *CeilingAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := CeilingMetrics{}
	cc := a.config.CeilingCheck
	params := a.config.FlightParameters()

	critical := func(err error) error {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}
	partial := func(err error) {
		a.logger.Warn("Partial failure", logger.Error(err))
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(err, time.Since(startTime))
		}
	}

	// METARs and the TAF are independent, fetch them together
	var (
		wg     sync.WaitGroup
		taf    *models.TAF
		tafErr error
	)
	if a.config.TAFEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			taf, tafErr = a.source.FetchTAF(ctx, cc.LaunchStationID)
		}()
	}

	box := BoundingBoxAround(cc.LaunchLatitude, cc.LaunchLongitude, cc.SearchRadiusNM)
	a.logger.Info("Fetching METARs", logger.Float64("radius_nm", cc.SearchRadiusNM))
	payload, err := a.source.FetchMETARs(ctx, box)
	wg.Wait()
	if err != nil {
		return critical(fmt.Errorf("failed to fetch METARs: %w", err))
	}

	verdict, err := Assess(payload, a.source.Format(), params)
	if err != nil {
		return critical(fmt.Errorf("failed to evaluate METARs: %w", err))
	}

	metrics.Decision = verdict.Decision
	metrics.StationsEvaluated = len(verdict.ContributingStations)
	metrics.StationsFailing = len(verdict.FailingStations())
	metrics.Warnings = len(verdict.Warnings)

	switch {
	case tafErr != nil:
		partial(fmt.Errorf("failed to fetch TAF for %s: %w", cc.LaunchStationID, tafErr))
	case taf != nil:
		metrics.TAFFetched = true
	}

	now := a.now().In(a.config.Location())
	sunWindow := solar.Window(cc.LaunchLatitude, cc.LaunchLongitude, now, cc.MinSunElevationDeg)

	report := &models.FlightReport{
		RunID:        uuid.NewString(),
		Date:         now,
		LocationName: cc.LaunchName,
		StationID:    cc.LaunchStationID,
		Parameters:   params,
		Verdict:      verdict,
		TAF:          taf,
		SunWindow:    &sunWindow,
		Summary:      Summarize(verdict, params),
	}

	a.logVerdict(report)

	if a.briefer != nil {
		briefing, err := a.briefer.Brief(ctx, report)
		if err != nil {
			partial(fmt.Errorf("failed to generate briefing: %w", err))
		} else {
			report.Briefing = briefing
			metrics.BriefingAdded = true
		}
	}

	if a.archive != nil {
		if err := a.archive.Save(ctx, report); err != nil {
			partial(fmt.Errorf("failed to archive verdict: %w", err))
		} else {
			metrics.Archived = true
		}
	}

	if events != nil && events.OnReport != nil {
		events.OnReport(report)
	}

	if key, send := a.shouldNotify(report); send {
		a.logger.Info("Sending report email", logger.String("decision", string(verdict.Decision)))
		if err := a.sendEmailReport(report); err != nil {
			return critical(fmt.Errorf("failed to send email report: %w", err))
		}
		metrics.EmailSent = true

		if a.tracker != nil {
			if err := a.tracker.MarkNotified(key, verdict.Decision); err != nil {
				partial(fmt.Errorf("failed to record notification: %w", err))
			}
		}
	} else {
		a.logger.Info("No email for this run",
			logger.String("policy", cc.NotifyPolicy),
			logger.String("decision", string(verdict.Decision)))
	}

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	a.logger.Info("Ceiling check complete",
		logger.String("decision", string(metrics.Decision)),
		logger.Int("stations", metrics.StationsEvaluated),
		logger.Bool("email_sent", metrics.EmailSent),
		logger.Duration("duration", duration))

	return nil
}

// Assess normalizes a raw provider payload, keeps the latest report of each
// station and evaluates it. Normalizer warnings are merged into the verdict.
func Assess(payload []byte, format string, params models.FlightParameters) (*models.Verdict, error) {
	normalizer, err := normalize.ForFormat(format)
	if err != nil {
		return nil, err
	}

	result, err := normalizer.Normalize(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize METARs: %w", err)
	}

	verdict, err := decision.Evaluate(normalize.LatestPerStation(result.Observations), params)
	if err != nil {
		return nil, err
	}

	if len(result.Warnings) > 0 {
		verdict.Warnings = append(append([]string{}, result.Warnings...), verdict.Warnings...)
	}

	return verdict, nil
}

// Summarize returns the one-line headline of a verdict
func Summarize(verdict *models.Verdict, params models.FlightParameters) string {
	if verdict.IsGo() {
		return fmt.Sprintf("GO: all %d stations within %.0f nm report ceilings at or above %.0f ft MSL",
			len(verdict.ContributingStations), params.SearchRadiusNM, verdict.RequiredBaseFtMSL)
	}
	if len(verdict.ContributingStations) == 0 {
		return "NO_GO: " + decision.NoStationsReason
	}
	return fmt.Sprintf("NO_GO: %d of %d stations within %.0f nm below %.0f ft MSL",
		len(verdict.FailingStations()), len(verdict.ContributingStations), params.SearchRadiusNM, verdict.RequiredBaseFtMSL)
}

// shouldNotify applies the notify policy and returns the tracker key to mark
func (a *CeilingAgent) shouldNotify(report *models.FlightReport) (string, bool) {
	d := report.Verdict.Decision
	dayKey := report.StationID + "/" + report.Date.Format("2006-01-02")

	switch a.config.CeilingCheck.NotifyPolicy {
	case config.NotifyAlways:
		return dayKey, a.tracker == nil || !a.tracker.WasNotified(dayKey, d)
	case config.NotifyOnChange:
		if a.tracker == nil {
			return report.StationID, true
		}
		last, ok := a.tracker.LastDecision(report.StationID)
		return report.StationID, !ok || last != d
	default:
		if d != models.DecisionGo {
			return dayKey, false
		}
		return dayKey, a.tracker == nil || !a.tracker.WasNotified(dayKey, d)
	}
}

func (a *CeilingAgent) logVerdict(report *models.FlightReport) {
	v := report.Verdict
	a.logger.Info("Verdict", verdictFields(report)...)

	for _, s := range v.ContributingStations {
		fields := []logger.Field{
			logger.String("station", s.Observation.StationID),
			logger.Float64("distance_nm", s.DistanceNM),
			logger.Bool("passed", s.Passed),
		}
		if s.HasCeiling {
			fields = append(fields, logger.Float64("ceiling_ft_msl", s.CeilingFtMSL))
		}
		a.logger.Debug("Station result", fields...)
	}

	for _, warning := range v.Warnings {
		a.logger.Warn("Observation warning", logger.String("warning", warning))
	}
}

func verdictFields(report *models.FlightReport) []logger.Field {
	v := report.Verdict
	fields := []logger.Field{
		logger.String("decision", string(v.Decision)),
		logger.String("summary", report.Summary),
		logger.Float64("required_base_ft_msl", v.RequiredBaseFtMSL),
	}
	if len(v.Reasons) > 0 {
		fields = append(fields, logger.Strings("reasons", v.Reasons))
	}
	if w := report.SunWindow; w != nil && w.HasWindow {
		fields = append(fields, logger.Time("sun_window_start", w.Start), logger.Time("sun_window_end", w.End))
	}
	return fields
}
