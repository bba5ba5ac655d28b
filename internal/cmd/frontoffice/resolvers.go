package frontoffice

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/day"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/world"
)

// leagueSim is the driver's stand-in match resolver: a seeded coin flip with
// home advantage. Match ids double as event ids in generated seasons, so the
// pairing comes straight from the event store.
type leagueSim struct {
	store        storage.Store
	seed         int64
	playerTeamID string

	rng *rand.Rand
}

func (l *leagueSim) Simulate(ctx context.Context, matchID string) (*day.MatchResult, error) {
	evt, err := l.store.GetEvent(ctx, matchID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if evt.Match == nil {
		return nil, nil
	}

	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(l.seed))
	}
	homeScore := l.rng.Intn(4)
	awayScore := l.rng.Intn(4)
	if homeScore == awayScore {
		// No draws in league play; home advantage breaks ties.
		homeScore++
	}
	result := &day.MatchResult{
		MatchID:    matchID,
		HomeTeamID: evt.Match.HomeTeamID,
		AwayTeamID: evt.Match.AwayTeamID,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
	}
	if homeScore > awayScore {
		result.WinnerTeamID = evt.Match.HomeTeamID
	} else {
		result.WinnerTeamID = evt.Match.AwayTeamID
	}

	for _, teamID := range []string{evt.Match.HomeTeamID, evt.Match.AwayTeamID} {
		if err := l.recordResult(ctx, teamID, teamID == result.WinnerTeamID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// recordResult maintains win and loss streaks so streak-conditioned drama
// templates have something to react to.
func (l *leagueSim) recordResult(ctx context.Context, teamID string, won bool) error {
	team, err := l.store.GetTeam(ctx, teamID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil
		}
		return err
	}
	if won {
		team.WinStreak++
		team.LossStreak = 0
	} else {
		team.WinStreak = 0
		team.LossStreak++
	}
	return l.store.PutTeam(ctx, team)
}

// payroll deducts a flat salary bill per payday and warns when the budget
// runs thin.
type payroll struct {
	store storage.Store
}

const (
	baseSalaryBill   = 50_000_00
	perPlayerSalary  = 40_000_00
	lowBudgetWarning = 500_000_00
)

func (p *payroll) ProcessMonthlyFinances(ctx context.Context, teamID string) ([]string, error) {
	team, err := p.store.GetTeam(ctx, teamID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	roster, err := p.store.ListRoster(ctx, teamID)
	if err != nil {
		return nil, err
	}

	team.Budget -= int64(baseSalaryBill + perPlayerSalary*len(roster))
	if err := p.store.PutTeam(ctx, team); err != nil {
		return nil, err
	}

	var warnings []string
	if team.Budget < 0 {
		warnings = append(warnings, fmt.Sprintf("%s is over budget by %d", teamID, -team.Budget))
	} else if team.Budget < lowBudgetWarning {
		warnings = append(warnings, fmt.Sprintf("%s budget is below the reserve threshold", teamID))
	}
	return warnings, nil
}

// stageStarter only logs; bracket seeding is outside the driver.
type stageStarter struct{}

func (stageStarter) StartStage(_ context.Context, tournamentID string) error {
	log.Printf("tournament stage %s begins", tournamentID)
	return nil
}

// activityApplier turns resolved activities into small roster and team
// adjustments scaled by effectiveness.
type activityApplier struct {
	store  storage.Store
	teamID string
}

func (a *activityApplier) ResolveAll(ctx context.Context, configs []activity.Config) ([]day.ActivityOutcome, error) {
	outcomes := make([]day.ActivityOutcome, 0, len(configs))
	for _, cfg := range configs {
		if err := a.apply(ctx, cfg); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, day.ActivityOutcome{
			EventID:        cfg.EventID,
			Type:           cfg.Type,
			Effectiveness:  cfg.Effectiveness,
			AutoConfigured: cfg.AutoConfigured,
			Summary:        fmt.Sprintf("%s completed at %d%% effectiveness", cfg.Type, cfg.Effectiveness),
		})
	}
	return outcomes, nil
}

func (a *activityApplier) apply(ctx context.Context, cfg activity.Config) error {
	switch cfg.Type {
	case activity.TypeTraining:
		roster, err := a.store.ListRoster(ctx, a.teamID)
		if err != nil {
			return err
		}
		for _, p := range roster {
			p.Morale = world.ClampPercent(p.Morale + cfg.Effectiveness/25)
			if err := a.store.PutPlayer(ctx, a.teamID, p); err != nil {
				return err
			}
		}
	case activity.TypeScrim:
		team, err := a.store.GetTeam(ctx, a.teamID)
		if err != nil {
			return err
		}
		team.Chemistry = world.ClampPercent(team.Chemistry + cfg.Effectiveness/20)
		return a.store.PutTeam(ctx, team)
	}
	return nil
}
