package day

import (
	"context"

	"github.com/pitchside/frontoffice/internal/activity"
)

// MatchResult is the outcome of one simulated match.
type MatchResult struct {
	MatchID      string
	HomeTeamID   string
	AwayTeamID   string
	HomeScore    int
	AwayScore    int
	WinnerTeamID string
}

// MatchResolver simulates matches. A nil result means the match could not be
// resolved; the orchestrator logs and moves on.
type MatchResolver interface {
	Simulate(ctx context.Context, matchID string) (*MatchResult, error)
}

// FinanceResolver runs the monthly payroll and returns budget warnings.
type FinanceResolver interface {
	ProcessMonthlyFinances(ctx context.Context, teamID string) ([]string, error)
}

// TournamentResolver handles tournament stage transitions.
type TournamentResolver interface {
	StartStage(ctx context.Context, tournamentID string) error
}

// ActivityOutcome is the resolution of one locked activity.
type ActivityOutcome struct {
	EventID        string
	Type           activity.Type
	Effectiveness  int
	AutoConfigured bool
	Summary        string
}

// ActivityResolver resolves all of a day's locked activities in one batch.
type ActivityResolver interface {
	ResolveAll(ctx context.Context, configs []activity.Config) ([]ActivityOutcome, error)
}
