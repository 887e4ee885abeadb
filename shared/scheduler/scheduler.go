package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"flightwx/internal/models"
	"flightwx/shared/config"
	"flightwx/shared/logger"
	"flightwx/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
	OnReport          func(report *models.FlightReport)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler manages the execution of agents on a schedule
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	history monitoring.HistorySource
	agent   Agent
	cron    *cron.Cron
	logger  *logger.Logger
}

func New(cfg *config.Config, agent Agent, history monitoring.HistorySource, log *logger.Logger) *Scheduler {
	log = log.Named("scheduler")

	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(log),
		history: history,
		agent:   agent,
		logger:  log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Monitor exposes the run monitor, mainly for tests
func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Error running scheduled job",
				logger.String("agent", s.agent.Name()),
				logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, strconv.Itoa(s.config.Monitoring.HealthPort), s.history, s.logger)
	healthServer.Start()

	s.logger.Info("Scheduler started",
		logger.String("agent", s.agent.Name()),
		logger.String("schedule", s.config.Schedule))
	s.cron.Start()

	// Keep the scheduler running indefinitely until context is cancelled
	<-ctx.Done()
	s.logger.Info("Scheduler stopped", logger.String("agent", s.agent.Name()))

	stopCtx := s.cron.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	select {
	case <-stopCtx.Done():
	case <-shutdownCtx.Done():
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Health server shutdown failed", logger.Error(err))
	}
	return nil
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.logger.Info("Starting run", logger.String("agent", agentName))

	// Create event handlers for monitoring
	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
		OnReport: s.monitor.RecordReport,
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
