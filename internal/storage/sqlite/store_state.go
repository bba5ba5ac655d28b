package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
)

func (s *Store) SaveDramaState(ctx context.Context, state drama.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal drama state: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO drama_state (id, state_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET state_json = excluded.state_json`,
		string(raw))
	if err != nil {
		return fmt.Errorf("save drama state: %w", err)
	}
	return nil
}

func (s *Store) LoadDramaState(ctx context.Context) (drama.State, bool, error) {
	var raw string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT state_json FROM drama_state WHERE id = 1").Scan(&raw)
	if err == sql.ErrNoRows {
		return drama.State{}, false, nil
	}
	if err != nil {
		return drama.State{}, false, fmt.Errorf("load drama state: %w", err)
	}

	var state drama.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return drama.State{}, false, fmt.Errorf("unmarshal drama state: %w", err)
	}
	return state, true, nil
}

func (s *Store) SaveClock(ctx context.Context, date time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO sim_clock (id, date) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET date = excluded.date`,
		toMillis(calendar.DateOf(date)))
	if err != nil {
		return fmt.Errorf("save clock: %w", err)
	}
	return nil
}

func (s *Store) LoadClock(ctx context.Context) (time.Time, bool, error) {
	var millis int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT date FROM sim_clock WHERE id = 1").Scan(&millis)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load clock: %w", err)
	}
	return fromMillis(millis), true, nil
}
