package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flightwx/internal/models"
	"flightwx/shared/logger"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// VerdictStore archives every ceiling check report in SQLite
type VerdictStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewVerdictStore opens (or creates) the archive at dbPath
func NewVerdictStore(dbPath string, log *logger.Logger) (*VerdictStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open verdict database: %w", err)
	}
	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &VerdictStore{
		db:     db,
		logger: log.Named("verdict-store"),
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *VerdictStore) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			station_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			required_base_ft_msl REAL NOT NULL,
			station_count INTEGER NOT NULL,
			report_json TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create verdicts table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_verdicts_created_at ON verdicts(created_at_ms)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	return nil
}

// Save archives a report, assigning a run id when it has none
func (s *VerdictStore) Save(ctx context.Context, report *models.FlightReport) error {
	if report == nil || report.Verdict == nil {
		return fmt.Errorf("report with a verdict is required")
	}
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}
	if report.Date.IsZero() {
		report.Date = time.Now()
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts
		(run_id, created_at, created_at_ms, station_id, decision, required_base_ft_msl, station_count, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Date.UTC().Format(time.RFC3339),
		report.Date.UnixMilli(),
		report.StationID,
		string(report.Verdict.Decision),
		report.Verdict.RequiredBaseFtMSL,
		len(report.Verdict.ContributingStations),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}

	s.logger.Debug("Verdict archived",
		logger.String("run_id", report.RunID),
		logger.String("decision", string(report.Verdict.Decision)))
	return nil
}

// Recent returns up to limit reports, newest first
func (s *VerdictStore) Recent(ctx context.Context, limit int) ([]*models.FlightReport, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT report_json FROM verdicts ORDER BY created_at_ms DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var reports []*models.FlightReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}

		var report models.FlightReport
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			s.logger.Warn("Skipping unreadable archived verdict", logger.Error(err))
			continue
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verdicts: %w", err)
	}

	return reports, nil
}

// CountByDecision returns how many archived runs ended in each decision since the given time
func (s *VerdictStore) CountByDecision(ctx context.Context, since time.Time) (map[models.Decision]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT decision, COUNT(*) FROM verdicts WHERE created_at_ms >= ? GROUP BY decision`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to count verdicts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Decision]int)
	for rows.Next() {
		var decision string
		var n int
		if err := rows.Scan(&decision, &n); err != nil {
			return nil, fmt.Errorf("failed to scan verdict count: %w", err)
		}
		counts[models.Decision(decision)] = n
	}
	return counts, rows.Err()
}

func (s *VerdictStore) Close() error {
	return s.db.Close()
}
