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

const eventColumns = "id, date, type, processed, required, team_id, tournament_id, lifecycle, match_json"

func (s *Store) PutEvent(ctx context.Context, evt calendar.Event) error {
	var matchJSON sql.NullString
	if evt.Match != nil {
		raw, err := json.Marshal(evt.Match)
		if err != nil {
			return fmt.Errorf("marshal match data: %w", err)
		}
		matchJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			type = excluded.type,
			processed = excluded.processed,
			required = excluded.required,
			team_id = excluded.team_id,
			tournament_id = excluded.tournament_id,
			lifecycle = excluded.lifecycle,
			match_json = excluded.match_json`,
		evt.ID, toMillis(calendar.DateOf(evt.Date)), string(evt.Type),
		boolToInt(evt.Processed), boolToInt(evt.Required),
		evt.TeamID, evt.TournamentID, string(evt.Lifecycle), matchJSON)
	if err != nil {
		return fmt.Errorf("put event %s: %w", evt.ID, err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	evt, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return calendar.Event{}, storage.ErrNotFound
	}
	if err != nil {
		return calendar.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return evt, nil
}

func (s *Store) ListEventsByDate(ctx context.Context, date time.Time) ([]calendar.Event, error) {
	day := toMillis(calendar.DateOf(date))
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE date = ? ORDER BY date, id", day)
	if err != nil {
		return nil, fmt.Errorf("list events by date: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) ListEventsBetween(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE date >= ? AND date < ? ORDER BY date, id",
		toMillis(calendar.DateOf(from)), toMillis(calendar.DateOf(to)))
	if err != nil {
		return nil, fmt.Errorf("list events between: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (calendar.Event, error) {
	var evt calendar.Event
	var date int64
	var eventType, lifecycle string
	var processed, required int
	var matchJSON sql.NullString

	err := row.Scan(&evt.ID, &date, &eventType, &processed, &required,
		&evt.TeamID, &evt.TournamentID, &lifecycle, &matchJSON)
	if err != nil {
		return calendar.Event{}, err
	}

	evt.Date = fromMillis(date)
	evt.Type = calendar.EventType(eventType)
	evt.Processed = processed != 0
	evt.Required = required != 0
	evt.Lifecycle = activity.State(lifecycle)
	if matchJSON.Valid {
		var match calendar.MatchData
		if err := json.Unmarshal([]byte(matchJSON.String), &match); err != nil {
			return calendar.Event{}, fmt.Errorf("unmarshal match data: %w", err)
		}
		evt.Match = &match
	}
	return evt, nil
}

func collectEvents(rows *sql.Rows) ([]calendar.Event, error) {
	var out []calendar.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
