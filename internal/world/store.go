package world

import (
	"context"
	"time"
)

// Store is the read/write surface over player and team state. Implementations
// persist raw values; range clamping is owned by the callers applying
// effects, not by the store.
type Store interface {
	GetPlayer(ctx context.Context, playerID string) (Player, error)
	SetPlayerMorale(ctx context.Context, playerID string, value int) error
	SetPlayerStat(ctx context.Context, playerID, stat string, value int) error

	GetTeam(ctx context.Context, teamID string) (Team, error)
	SetTeamChemistry(ctx context.Context, teamID string, value int) error
	AddTeamBudget(ctx context.Context, teamID string, delta int64) error

	ListRoster(ctx context.Context, teamID string) ([]Player, error)
}

// Provider builds world snapshots for a given date. Implementations combine
// the player/team store with the live flag and cooldown sets.
type Provider interface {
	Snapshot(ctx context.Context, date time.Time) (Snapshot, error)
}
