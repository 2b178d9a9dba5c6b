package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// settingsKey: the app has exactly one settings record.
const settingsKey = "app"

// PanelPosition is a draggable panel's saved location.
type PanelPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AppSettings are the cross-session UI preferences.
type AppSettings struct {
	Theme          string                   `json:"theme"`
	PanelPositions map[string]PanelPosition `json:"panelPositions,omitempty"`
}

// DefaultAppSettings returns the preferences of a first run.
func DefaultAppSettings() AppSettings {
	return AppSettings{Theme: "light"}
}

// SaveSettings stores the app settings, replacing any previous record.
func (s *Store) SaveSettings(ctx context.Context, as AppSettings) error {
	val, err := json.Marshal(as)
	if err != nil {
		return fmt.Errorf("session: marshal settings: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		settingsKey, string(val), now)
	if err != nil {
		return fmt.Errorf("session: save settings: %w", err)
	}
	return nil
}

// LoadSettings returns the stored app settings, or the defaults when nothing
// has been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (AppSettings, error) {
	var val string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_settings WHERE key = ?`, settingsKey).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultAppSettings(), nil
	}
	if err != nil {
		return AppSettings{}, fmt.Errorf("session: load settings: %w", err)
	}
	var as AppSettings
	if err := json.Unmarshal([]byte(val), &as); err != nil {
		return AppSettings{}, fmt.Errorf("session: unmarshal settings: %w", err)
	}
	return as, nil
}
