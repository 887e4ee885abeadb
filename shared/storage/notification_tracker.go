package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"flightwx/internal/models"
)

// NotificationTracker remembers which verdicts were already emailed so repeated
// runs do not send the same decision twice
type NotificationTracker struct {
	filePath string
	entries  map[string]TrackedNotification
	mu       sync.RWMutex
	maxAge   time.Duration
}

// TrackedNotification is the last decision sent for a key
type TrackedNotification struct {
	Key        string          `json:"key"`
	Decision   models.Decision `json:"decision"`
	NotifiedAt time.Time       `json:"notified_at"`
}

// NewNotificationTracker creates a tracker persisted under dataDir
func NewNotificationTracker(dataDir string, maxAge time.Duration) (*NotificationTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &NotificationTracker{
		filePath: filepath.Join(dataDir, "notifications.json"),
		entries:  make(map[string]TrackedNotification),
		maxAge:   maxAge,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load notification tracker data: %w", err)
	}

	tracker.cleanup()

	return tracker, nil
}

// WasNotified checks if decision was already sent for key within maxAge
func (nt *NotificationTracker) WasNotified(key string, decision models.Decision) bool {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	entry, exists := nt.entries[key]
	if !exists || entry.Decision != decision {
		return false
	}

	return time.Since(entry.NotifiedAt) < nt.maxAge
}

// LastDecision returns the last decision sent for key
func (nt *NotificationTracker) LastDecision(key string) (models.Decision, bool) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	entry, exists := nt.entries[key]
	if !exists || time.Since(entry.NotifiedAt) >= nt.maxAge {
		return "", false
	}
	return entry.Decision, true
}

// MarkNotified records that decision was sent for key
func (nt *NotificationTracker) MarkNotified(key string, decision models.Decision) error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	nt.entries[key] = TrackedNotification{
		Key:        key,
		Decision:   decision,
		NotifiedAt: time.Now(),
	}
	return nt.save()
}

// Count returns the number of tracked keys
func (nt *NotificationTracker) Count() int {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return len(nt.entries)
}

// cleanup removes entries older than maxAge
func (nt *NotificationTracker) cleanup() {
	cutoff := time.Now().Add(-nt.maxAge)

	for key, entry := range nt.entries {
		if entry.NotifiedAt.Before(cutoff) {
			delete(nt.entries, key)
		}
	}
}

func (nt *NotificationTracker) load() error {
	file, err := os.Open(nt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var tracked []TrackedNotification
	if err := json.NewDecoder(file).Decode(&tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, entry := range tracked {
		nt.entries[entry.Key] = entry
	}

	return nil
}

func (nt *NotificationTracker) save() error {
	tracked := make([]TrackedNotification, 0, len(nt.entries))
	for _, entry := range nt.entries {
		tracked = append(tracked, entry)
	}

	file, err := os.Create(nt.filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(tracked)
}
