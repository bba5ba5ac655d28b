package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/storage"
)

const activityColumns = "event_id, type, date, status, effectiveness, auto_configured, settings_json"

func (s *Store) PutActivityConfig(ctx context.Context, cfg activity.Config) error {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("marshal activity settings: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO activity_configs (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			type = excluded.type,
			date = excluded.date,
			status = excluded.status,
			effectiveness = excluded.effectiveness,
			auto_configured = excluded.auto_configured,
			settings_json = excluded.settings_json`,
		cfg.EventID, string(cfg.Type), toMillis(calendar.DateOf(cfg.Date)),
		string(cfg.Status), cfg.Effectiveness, boolToInt(cfg.AutoConfigured),
		string(settings))
	if err != nil {
		return fmt.Errorf("put activity config %s: %w", cfg.EventID, err)
	}
	return nil
}

func (s *Store) GetActivityConfig(ctx context.Context, eventID string) (activity.Config, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+activityColumns+" FROM activity_configs WHERE event_id = ?", eventID)
	cfg, err := scanActivityConfig(row)
	if err == sql.ErrNoRows {
		return activity.Config{}, storage.ErrNotFound
	}
	if err != nil {
		return activity.Config{}, fmt.Errorf("get activity config %s: %w", eventID, err)
	}
	return cfg, nil
}

func (s *Store) ListActivityConfigsByDate(ctx context.Context, date time.Time) ([]activity.Config, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM activity_configs WHERE date = ? ORDER BY event_id",
		toMillis(calendar.DateOf(date)))
	if err != nil {
		return nil, fmt.Errorf("list activity configs by date: %w", err)
	}
	defer rows.Close()

	var out []activity.Config
	for rows.Next() {
		cfg, err := scanActivityConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity config: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity configs: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteActivityConfig(ctx context.Context, eventID string) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM activity_configs WHERE event_id = ?", eventID)
	if err != nil {
		return fmt.Errorf("delete activity config %s: %w", eventID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete activity config %s: %w", eventID, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanActivityConfig(row rowScanner) (activity.Config, error) {
	var cfg activity.Config
	var activityType, status, settingsJSON string
	var date int64
	var autoConfigured int

	err := row.Scan(&cfg.EventID, &activityType, &date, &status,
		&cfg.Effectiveness, &autoConfigured, &settingsJSON)
	if err != nil {
		return activity.Config{}, err
	}

	cfg.Type = activity.Type(activityType)
	cfg.Date = fromMillis(date)
	cfg.Status = activity.State(status)
	cfg.AutoConfigured = autoConfigured != 0
	if err := json.Unmarshal([]byte(settingsJSON), &cfg.Settings); err != nil {
		return activity.Config{}, fmt.Errorf("unmarshal activity settings: %w", err)
	}
	return cfg, nil
}
