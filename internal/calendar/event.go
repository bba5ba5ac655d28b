package calendar

import (
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
)

// EventType identifies the kind of a calendar event.
type EventType string

const (
	// EventMatch is a confirmed competitive match.
	EventMatch EventType = "match"
	// EventPlaceholderMatch is a bracket slot whose participants are decided
	// by earlier results; it becomes playable once resolved.
	EventPlaceholderMatch EventType = "placeholder_match"
	// EventSalaryPayment is the monthly payroll run.
	EventSalaryPayment EventType = "salary_payment"
	// EventTournamentStart marks the opening of a tournament stage.
	EventTournamentStart EventType = "tournament_start"
	// EventScheduledTraining is a player-scheduled training block.
	EventScheduledTraining EventType = "scheduled_training"
	// EventScheduledScrim is a player-scheduled practice match.
	EventScheduledScrim EventType = "scheduled_scrim"
	// EventTeamActivity is a morale-focused team outing.
	EventTeamActivity EventType = "team_activity"
)

// IsActivity reports whether the event type is a player-scheduled activity.
func (t EventType) IsActivity() bool {
	switch t {
	case EventScheduledTraining, EventScheduledScrim, EventTeamActivity:
		return true
	}
	return false
}

// IsRequired reports whether events of this type must be drained before the
// day can advance.
func (t EventType) IsRequired() bool {
	switch t {
	case EventMatch, EventPlaceholderMatch, EventSalaryPayment, EventTournamentStart:
		return true
	}
	return false
}

// ActivityType maps an activity event type to its activity.Type.
func (t EventType) ActivityType() (activity.Type, bool) {
	switch t {
	case EventScheduledTraining:
		return activity.TypeTraining, true
	case EventScheduledScrim:
		return activity.TypeScrim, true
	}
	return "", false
}

// EventTypeFor maps an activity.Type to its concrete calendar event type.
func EventTypeFor(activityType activity.Type) (EventType, bool) {
	switch activityType {
	case activity.TypeTraining:
		return EventScheduledTraining, true
	case activity.TypeScrim:
		return EventScheduledScrim, true
	}
	return "", false
}

// MatchData is the payload of match and placeholder_match events.
type MatchData struct {
	MatchID    string
	HomeTeamID string
	AwayTeamID string
	Phase      SeasonPhase
	// Resolved marks a placeholder whose participants are now known.
	Resolved bool
}

// Involves reports whether teamID plays in this match.
func (m MatchData) Involves(teamID string) bool {
	return teamID != "" && (m.HomeTeamID == teamID || m.AwayTeamID == teamID)
}

// Event is one entry in the simulation calendar. Events are created by season
// generation or by the player and destroyed only by explicit cancellation
// before their activity locks.
type Event struct {
	ID        string
	Date      time.Time
	Type      EventType
	Processed bool
	Required  bool

	// Match is set for match and placeholder_match events.
	Match *MatchData
	// TeamID is the payroll target for salary_payment events.
	TeamID string
	// TournamentID is set for tournament_start events.
	TournamentID string
	// Lifecycle is set only for activity events.
	Lifecycle activity.State
}

// NewActivityEvent creates a needs_setup calendar event for an activity.
func NewActivityEvent(id string, date time.Time, activityType activity.Type) (Event, bool) {
	eventType, ok := EventTypeFor(activityType)
	if !ok {
		return Event{}, false
	}
	return Event{
		ID:        id,
		Date:      DateOf(date),
		Type:      eventType,
		Lifecycle: activity.StateNeedsSetup,
	}, true
}
