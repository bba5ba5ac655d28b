package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/world"
)

const playerColumns = "id, name, role, rating, morale, stats_json, personality_json, contract_end"

func (s *Store) PutPlayer(ctx context.Context, teamID string, p world.Player) error {
	stats, err := json.Marshal(orEmptyStats(p.Stats))
	if err != nil {
		return fmt.Errorf("marshal player stats: %w", err)
	}
	personality, err := json.Marshal(orEmptyTraits(p.Personality))
	if err != nil {
		return fmt.Errorf("marshal player personality: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO players (id, team_id, name, role, rating, morale, stats_json, personality_json, contract_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			team_id = excluded.team_id,
			name = excluded.name,
			role = excluded.role,
			rating = excluded.rating,
			morale = excluded.morale,
			stats_json = excluded.stats_json,
			personality_json = excluded.personality_json,
			contract_end = excluded.contract_end`,
		p.ID, teamID, p.Name, p.Role, p.Rating, p.Morale,
		string(stats), string(personality), toNullMillis(p.ContractEnd))
	if err != nil {
		return fmt.Errorf("put player %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) PutTeam(ctx context.Context, t world.Team) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO teams (id, name, chemistry, budget, win_streak, loss_streak, bracket_position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			chemistry = excluded.chemistry,
			budget = excluded.budget,
			win_streak = excluded.win_streak,
			loss_streak = excluded.loss_streak,
			bracket_position = excluded.bracket_position`,
		t.ID, t.Name, t.Chemistry, t.Budget, t.WinStreak, t.LossStreak, t.BracketPosition)
	if err != nil {
		return fmt.Errorf("put team %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (world.Player, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return world.Player{}, storage.ErrNotFound
	}
	if err != nil {
		return world.Player{}, fmt.Errorf("get player %s: %w", playerID, err)
	}
	return p, nil
}

func (s *Store) SetPlayerMorale(ctx context.Context, playerID string, value int) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE players SET morale = ? WHERE id = ?", value, playerID)
	if err != nil {
		return fmt.Errorf("set morale for %s: %w", playerID, err)
	}
	return requireAffected(res, playerID)
}

func (s *Store) SetPlayerStat(ctx context.Context, playerID, stat string, value int) error {
	p, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	stats := orEmptyStats(p.Stats)
	stats[stat] = value
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal player stats: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE players SET stats_json = ? WHERE id = ?", string(raw), playerID)
	if err != nil {
		return fmt.Errorf("set stat %s for %s: %w", stat, playerID, err)
	}
	return requireAffected(res, playerID)
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (world.Team, error) {
	var t world.Team
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, name, chemistry, budget, win_streak, loss_streak, bracket_position
		FROM teams WHERE id = ?`, teamID).
		Scan(&t.ID, &t.Name, &t.Chemistry, &t.Budget, &t.WinStreak, &t.LossStreak, &t.BracketPosition)
	if err == sql.ErrNoRows {
		return world.Team{}, storage.ErrNotFound
	}
	if err != nil {
		return world.Team{}, fmt.Errorf("get team %s: %w", teamID, err)
	}
	return t, nil
}

func (s *Store) SetTeamChemistry(ctx context.Context, teamID string, value int) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE teams SET chemistry = ? WHERE id = ?", value, teamID)
	if err != nil {
		return fmt.Errorf("set chemistry for %s: %w", teamID, err)
	}
	return requireAffected(res, teamID)
}

func (s *Store) AddTeamBudget(ctx context.Context, teamID string, delta int64) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE teams SET budget = budget + ? WHERE id = ?", delta, teamID)
	if err != nil {
		return fmt.Errorf("adjust budget for %s: %w", teamID, err)
	}
	return requireAffected(res, teamID)
}

func (s *Store) ListRoster(ctx context.Context, teamID string) ([]world.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE team_id = ? ORDER BY id", teamID)
	if err != nil {
		return nil, fmt.Errorf("list roster for %s: %w", teamID, err)
	}
	defer rows.Close()

	var out []world.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return out, nil
}

func scanPlayer(row rowScanner) (world.Player, error) {
	var p world.Player
	var statsJSON, personalityJSON string
	var contractEnd sql.NullInt64

	err := row.Scan(&p.ID, &p.Name, &p.Role, &p.Rating, &p.Morale,
		&statsJSON, &personalityJSON, &contractEnd)
	if err != nil {
		return world.Player{}, err
	}

	if err := json.Unmarshal([]byte(statsJSON), &p.Stats); err != nil {
		return world.Player{}, fmt.Errorf("unmarshal player stats: %w", err)
	}
	if err := json.Unmarshal([]byte(personalityJSON), &p.Personality); err != nil {
		return world.Player{}, fmt.Errorf("unmarshal player personality: %w", err)
	}
	p.ContractEnd = fromNullMillis(contractEnd)
	return p, nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func orEmptyStats(stats map[string]int) map[string]int {
	if stats == nil {
		return map[string]int{}
	}
	return stats
}

func orEmptyTraits(traits []string) []string {
	if traits == nil {
		return []string{}
	}
	return traits
}
