package drama

import "time"

// Status is the lifecycle status of a drama event instance.
type Status string

const (
	// StatusPending awaits a player decision.
	StatusPending Status = "pending"
	// StatusActive is a pending instance the player has acknowledged.
	StatusActive Status = "active"
	// StatusResolved is terminal: effects applied.
	StatusResolved Status = "resolved"
	// StatusExpired is terminal: the instance timed out with no escalation.
	StatusExpired Status = "expired"
	// StatusEscalated is terminal: the instance was replaced by its
	// escalation template.
	StatusEscalated Status = "escalated"
)

// IsOpen reports whether the instance still awaits resolution.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusActive
}

// Instance is one runtime occurrence of a template.
type Instance struct {
	ID         string
	TemplateID string
	Category   string
	Severity   Severity
	Title      string
	Text       string

	Status        Status
	TriggeredDate time.Time
	ResolvedDate  *time.Time

	// TriggeringPlayerID is the subject selected by the template's
	// player-selector; empty for team-wide events.
	TriggeringPlayerID string

	ChosenOptionID string
	OutcomeText    string
	AppliedEffects []Effect

	Escalated          bool
	EscalatedToEventID string
}
