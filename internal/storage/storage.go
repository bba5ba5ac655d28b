// Package storage defines the persistence interfaces for the simulation:
// calendar events, activity configurations, world state, narrative engine
// state, and the simulation clock. Implementations live in subpackages.
package storage

import (
	"context"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
	apperrors "github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/world"
)

// ErrNotFound indicates a requested persistence record is missing. Callers
// use this to differentiate between legitimate "no such entity" states and
// transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// EventStore owns the season calendar: every match, payment, tournament
// marker, and scheduled activity is one event record.
type EventStore interface {
	PutEvent(ctx context.Context, evt calendar.Event) error
	GetEvent(ctx context.Context, id string) (calendar.Event, error)
	// ListEventsByDate returns all events on the given calendar day.
	ListEventsByDate(ctx context.Context, date time.Time) ([]calendar.Event, error)
	// ListEventsBetween returns events with from <= date < to, ordered by date.
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ActivityStore owns activity configurations keyed by their calendar event.
type ActivityStore interface {
	PutActivityConfig(ctx context.Context, cfg activity.Config) error
	GetActivityConfig(ctx context.Context, eventID string) (activity.Config, error)
	ListActivityConfigsByDate(ctx context.Context, date time.Time) ([]activity.Config, error)
	DeleteActivityConfig(ctx context.Context, eventID string) error
}

// RosterStore extends the world read/write surface with the seeding writes
// the simulation setup path needs.
type RosterStore interface {
	world.Store
	PutPlayer(ctx context.Context, teamID string, p world.Player) error
	PutTeam(ctx context.Context, t world.Team) error
}

// DramaStateStore checkpoints the narrative engine's runtime state at save
// boundaries.
type DramaStateStore interface {
	SaveDramaState(ctx context.Context, state drama.State) error
	// LoadDramaState returns the last checkpoint. The boolean reports whether
	// a checkpoint exists.
	LoadDramaState(ctx context.Context) (drama.State, bool, error)
}

// ClockStore persists the simulation's current date.
type ClockStore interface {
	SaveClock(ctx context.Context, date time.Time) error
	// LoadClock returns the persisted date. The boolean reports whether a
	// clock record exists.
	LoadClock(ctx context.Context) (time.Time, bool, error)
}

// Store is the composite persistence surface the orchestrator runs against.
type Store interface {
	EventStore
	ActivityStore
	RosterStore
	DramaStateStore
	ClockStore
	Close() error
}
