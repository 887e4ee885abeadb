package monitoring

import (
	"fmt"
	"sync"
	"time"

	"flightwx/internal/models"
	"flightwx/shared/logger"
)

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	latestReport   *models.FlightReport
	logger         *logger.Logger
}

func NewMonitor(log *logger.Logger) *Monitor {
	return &Monitor{
		logger: log.Named("monitor"),
	}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.logger.Info("✅ Run completed successfully",
		logger.String("summary", summary),
		logger.Duration("duration", duration))
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Don't change health status for partial failures
	m.logger.Warn("⚠️  PARTIAL FAILURE",
		logger.Error(err),
		logger.Duration("duration", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.logger.Error("🚨 CRITICAL FAILURE",
		logger.Error(err),
		logger.Duration("duration", duration))
}

// RecordReport keeps the latest ceiling check report for the status API
func (m *Monitor) RecordReport(report *models.FlightReport) {
	if report == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestReport = report
}

// LatestReport returns the most recent report, nil before the first run
func (m *Monitor) LatestReport() *models.FlightReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestReport
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}

	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	status := fmt.Sprintf("❌ Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
	if m.lastRunSuccess {
		status = fmt.Sprintf("✅ Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	if m.latestReport != nil && m.latestReport.Verdict != nil {
		status += fmt.Sprintf(" - %s", m.latestReport.Verdict.Decision)
	}
	return status
}
