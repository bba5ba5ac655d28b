package activity

import "time"

// Type identifies a schedulable activity.
type Type string

const (
	// TypeTraining is a solo team training block.
	TypeTraining Type = "training"
	// TypeScrim is a practice match against a partner team.
	TypeScrim Type = "scrim"
)

// IsValid reports whether t is a known activity type.
func (t Type) IsValid() bool {
	return t == TypeTraining || t == TypeScrim
}

// Intensity controls how hard an activity is run.
type Intensity string

const (
	IntensityLight   Intensity = "light"
	IntensityNormal  Intensity = "normal"
	IntensityIntense Intensity = "intense"
)

// DefaultAutoEffectiveness is the fixed effectiveness assigned when the day
// arrives and the player never configured the activity.
const DefaultAutoEffectiveness = 60

// Settings carries the player-chosen parameters of an activity.
type Settings struct {
	// Intensity applies to both trainings and scrims.
	Intensity Intensity
	// FocusAreas lists the stats a training targets.
	FocusAreas []string
	// Assignments maps player ids to individual focus areas.
	Assignments map[string]string
	// PartnerTeamID is the opposing team for a scrim.
	PartnerTeamID string
}

// Config is the configuration record for one scheduled activity event.
// Exactly one Config exists per activity CalendarEvent once configured.
type Config struct {
	EventID        string
	Type           Type
	Date           time.Time
	Status         State
	Settings       Settings
	Effectiveness  int
	AutoConfigured bool
}

// NewConfig builds a player-authored configuration in the configured state.
func NewConfig(eventID string, activityType Type, date time.Time, settings Settings) Config {
	if settings.Intensity == "" {
		settings.Intensity = IntensityNormal
	}
	return Config{
		EventID:       eventID,
		Type:          activityType,
		Date:          date,
		Status:        StateConfigured,
		Settings:      settings,
		Effectiveness: effectiveness(settings.Intensity),
	}
}

// AutoConfig synthesizes a default configuration for an activity the player
// left unset when its day arrived. The result is already locked.
func AutoConfig(eventID string, activityType Type, date time.Time) Config {
	return Config{
		EventID:        eventID,
		Type:           activityType,
		Date:           date,
		Status:         StateLocked,
		Settings:       Settings{Intensity: IntensityNormal},
		Effectiveness:  DefaultAutoEffectiveness,
		AutoConfigured: true,
	}
}

func effectiveness(intensity Intensity) int {
	switch intensity {
	case IntensityLight:
		return 50
	case IntensityIntense:
		return 85
	default:
		return 70
	}
}
