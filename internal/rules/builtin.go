package rules

import (
	"fmt"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/progression"
)

// MatchDayReason is the blocker reason shown when a match occupies the day.
const MatchDayReason = "Team has a match scheduled on this day"

// MatchDayRule blocks training and scrims when the player's team has a
// confirmed match, or a resolved placeholder match, on the day.
func MatchDayRule() Rule {
	return Rule{
		ID:       "match_day",
		Name:     "Match day blocker",
		Priority: 100,
		Evaluate: func(ctx DayContext) Result {
			for _, evt := range ctx.Events {
				if evt.Match == nil || !evt.Match.Involves(ctx.PlayerTeamID) {
					continue
				}
				switch evt.Type {
				case calendar.EventMatch:
					return Block(MatchDayReason, activity.TypeTraining, activity.TypeScrim)
				case calendar.EventPlaceholderMatch:
					if evt.Match.Resolved {
						return Block(MatchDayReason, activity.TypeTraining, activity.TypeScrim)
					}
				}
			}
			return Skip()
		},
	}
}

// featureFor maps activity types to their gating feature.
var featureFor = map[activity.Type]progression.Feature{
	activity.TypeTraining: progression.FeatureTraining,
	activity.TypeScrim:    progression.FeatureScrims,
}

// FeatureGateRule blocks activity types whose backing feature has not been
// unlocked yet.
func FeatureGateRule(gate *progression.Gate) Rule {
	return Rule{
		ID:       "feature_gate",
		Name:     "Feature unlock gate",
		Priority: 90,
		Evaluate: func(ctx DayContext) Result {
			var locked []activity.Type
			for _, t := range SchedulableTypes() {
				feature, ok := featureFor[t]
				if !ok {
					continue
				}
				if !gate.IsUnlocked(feature, ctx.Date, ctx.Phase) {
					locked = append(locked, t)
				}
			}
			if len(locked) == 0 {
				return Skip()
			}
			return Block("This feature has not been unlocked yet", locked...)
		},
	}
}

// DefaultPhaseWhitelist allows training everywhere outside the offseason and
// keeps scrims out of the playoffs.
func DefaultPhaseWhitelist() map[calendar.SeasonPhase][]activity.Type {
	return map[calendar.SeasonPhase][]activity.Type{
		calendar.PhaseKickoff:  {activity.TypeTraining, activity.TypeScrim},
		calendar.PhaseStage1:   {activity.TypeTraining, activity.TypeScrim},
		calendar.PhaseStage2:   {activity.TypeTraining, activity.TypeScrim},
		calendar.PhasePlayoffs: {activity.TypeTraining},
	}
}

// SeasonPhaseRule blocks activity types not whitelisted for the current
// phase.
func SeasonPhaseRule(whitelist map[calendar.SeasonPhase][]activity.Type) Rule {
	if whitelist == nil {
		whitelist = DefaultPhaseWhitelist()
	}
	return Rule{
		ID:       "season_phase",
		Name:     "Season phase filter",
		Priority: 80,
		Evaluate: func(ctx DayContext) Result {
			allowed := map[activity.Type]bool{}
			for _, t := range whitelist[ctx.Phase] {
				allowed[t] = true
			}
			var blockedTypes []activity.Type
			for _, t := range SchedulableTypes() {
				if !allowed[t] {
					blockedTypes = append(blockedTypes, t)
				}
			}
			if len(blockedTypes) == 0 {
				return Skip()
			}
			return Block(fmt.Sprintf("Not available during the %s phase", ctx.Phase), blockedTypes...)
		},
	}
}
