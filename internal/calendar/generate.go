package calendar

import (
	"fmt"
	"time"
)

// SeasonConfig describes the shape of a generated season.
type SeasonConfig struct {
	// Start is the first day of the kickoff phase.
	Start time.Time
	// TeamIDs is the league roster; the player's team must be included.
	TeamIDs []string
	// MatchWeekday is the day of week league matches land on.
	MatchWeekday time.Weekday
	// SalaryDayOfMonth is the payroll day (1-28).
	SalaryDayOfMonth int

	// Phase lengths in days. Zero values fall back to defaults.
	KickoffDays  int
	Stage1Days   int
	Stage2Days   int
	PlayoffsDays int
}

func (c SeasonConfig) withDefaults() SeasonConfig {
	if c.MatchWeekday == 0 {
		c.MatchWeekday = time.Saturday
	}
	if c.SalaryDayOfMonth < 1 || c.SalaryDayOfMonth > 28 {
		c.SalaryDayOfMonth = 1
	}
	if c.KickoffDays == 0 {
		c.KickoffDays = 7
	}
	if c.Stage1Days == 0 {
		c.Stage1Days = 56
	}
	if c.Stage2Days == 0 {
		c.Stage2Days = 56
	}
	if c.PlayoffsDays == 0 {
		c.PlayoffsDays = 21
	}
	return c
}

// Phases derives the phase schedule implied by the config.
func (c SeasonConfig) Phases() PhaseSchedule {
	c = c.withDefaults()
	start := DateOf(c.Start)
	kickoffEnd := start.AddDate(0, 0, c.KickoffDays)
	stage1End := kickoffEnd.AddDate(0, 0, c.Stage1Days)
	stage2End := stage1End.AddDate(0, 0, c.Stage2Days)
	playoffsEnd := stage2End.AddDate(0, 0, c.PlayoffsDays)
	return PhaseSchedule{
		{Phase: PhaseKickoff, Start: start, End: kickoffEnd},
		{Phase: PhaseStage1, Start: kickoffEnd, End: stage1End},
		{Phase: PhaseStage2, Start: stage1End, End: stage2End},
		{Phase: PhasePlayoffs, Start: stage2End, End: playoffsEnd},
	}
}

// GenerateSeason builds the fixed events of a season: weekly league matches
// during the stages, placeholder bracket matches during playoffs, monthly
// salary payments, and a tournament-start marker at the top of each stage.
//
// Opponents rotate round-robin so no team plays twice on one date.
func GenerateSeason(cfg SeasonConfig, idGenerator func() (string, error)) ([]Event, error) {
	cfg = cfg.withDefaults()
	if len(cfg.TeamIDs) < 2 {
		return nil, fmt.Errorf("season needs at least two teams, got %d", len(cfg.TeamIDs))
	}
	if len(cfg.TeamIDs)%2 != 0 {
		return nil, fmt.Errorf("season needs an even team count, got %d", len(cfg.TeamIDs))
	}

	phases := cfg.Phases()
	seasonEnd := DateOf(phases[len(phases)-1].End)

	var events []Event
	newID := func() (string, error) {
		if idGenerator == nil {
			return "", fmt.Errorf("id generator is required")
		}
		return idGenerator()
	}

	// Stage openers.
	for _, w := range phases {
		if w.Phase == PhaseKickoff {
			continue
		}
		id, err := newID()
		if err != nil {
			return nil, fmt.Errorf("generate event id: %w", err)
		}
		events = append(events, Event{
			ID:           id,
			Date:         DateOf(w.Start),
			Type:         EventTournamentStart,
			TournamentID: fmt.Sprintf("%s-%d", w.Phase, w.Start.Year()),
			Required:     true,
		})
	}

	// Weekly matches: round-robin pairings rotated per round.
	round := 0
	for d := DateOf(cfg.Start); d.Before(seasonEnd); d = NextDay(d) {
		if d.Weekday() != cfg.MatchWeekday {
			continue
		}
		phase := phases.PhaseAt(d)
		if phase != PhaseStage1 && phase != PhaseStage2 && phase != PhasePlayoffs {
			continue
		}
		for _, pair := range roundRobinPairs(cfg.TeamIDs, round) {
			id, err := newID()
			if err != nil {
				return nil, fmt.Errorf("generate event id: %w", err)
			}
			eventType := EventMatch
			if phase == PhasePlayoffs {
				eventType = EventPlaceholderMatch
			}
			events = append(events, Event{
				ID:       id,
				Date:     d,
				Type:     eventType,
				Required: true,
				Match: &MatchData{
					MatchID:    id,
					HomeTeamID: pair[0],
					AwayTeamID: pair[1],
					Phase:      phase,
				},
			})
		}
		round++
	}

	// Monthly payroll for every team.
	for d := DateOf(cfg.Start); d.Before(seasonEnd); d = NextDay(d) {
		if d.Day() != cfg.SalaryDayOfMonth {
			continue
		}
		for _, teamID := range cfg.TeamIDs {
			id, err := newID()
			if err != nil {
				return nil, fmt.Errorf("generate event id: %w", err)
			}
			events = append(events, Event{
				ID:       id,
				Date:     d,
				Type:     EventSalaryPayment,
				TeamID:   teamID,
				Required: true,
			})
		}
	}

	return events, nil
}

// roundRobinPairs pairs teams for one round using the circle method: the
// first team stays fixed while the rest rotate.
func roundRobinPairs(teamIDs []string, round int) [][2]string {
	n := len(teamIDs)
	rotated := make([]string, n-1)
	for i := 0; i < n-1; i++ {
		rotated[i] = teamIDs[1+(i+round)%(n-1)]
	}

	pairs := make([][2]string, 0, n/2)
	pairs = append(pairs, [2]string{teamIDs[0], rotated[0]})
	for i := 1; i < n/2; i++ {
		pairs = append(pairs, [2]string{rotated[i], rotated[n-1-i]})
	}
	return pairs
}
