package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"flightwx/internal/models"
	"flightwx/shared/logger"

	"github.com/go-chi/chi/v5"
)

// HistorySource is the verdict archive behind /history and the /status tally
type HistorySource interface {
	// Recent lists archived reports, newest first
	Recent(ctx context.Context, limit int) ([]*models.FlightReport, error)
	// CountByDecision tallies archived runs per decision since the given time
	CountByDecision(ctx context.Context, since time.Time) (map[models.Decision]int, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	statusTallyWindow   = 7 * 24 * time.Hour
)

type HealthServer struct {
	monitor *Monitor
	history HistorySource
	port    string
	server  *http.Server
	logger  *logger.Logger
}

func NewHealthServer(monitor *Monitor, port string, history HistorySource, log *logger.Logger) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor: monitor,
		history: history,
		port:    port,
		logger:  log.Named("health"),
	}
}

// Handler returns the router serving /health, /status, /verdict and /history
func (h *HealthServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.healthHandler)
	r.Get("/status", h.statusHandler)
	r.Get("/verdict", h.verdictHandler)
	r.Get("/history", h.historyHandler)
	return r
}

func (h *HealthServer) Start() {
	h.server = &http.Server{
		Addr:              ":" + h.port,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.logger.Info("Health check server starting", logger.String("port", h.port))
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Health server error", logger.Error(err))
		}
	}()
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())

	if h.history == nil {
		return
	}
	counts, err := h.history.CountByDecision(r.Context(), time.Now().Add(-statusTallyWindow))
	if err != nil {
		h.logger.Warn("Failed to tally verdict history", logger.Error(err))
		return
	}
	fmt.Fprintf(w, "\nLast 7 days: %d GO, %d NO_GO", counts[models.DecisionGo], counts[models.DecisionNoGo])
}

func (h *HealthServer) verdictHandler(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.LatestReport()
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no ceiling check has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HealthServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "verdict history is not enabled"})
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	reports, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load verdict history", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load verdict history"})
		return
	}
	if reports == nil {
		reports = []*models.FlightReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
