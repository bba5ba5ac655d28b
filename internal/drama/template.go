// Package drama implements the narrative event engine: authored templates
// evaluated against world state each simulated day, with probabilistic
// triggering, cooldown and flag bookkeeping, escalation chains, and effect
// application.
package drama

import "github.com/pitchside/frontoffice/internal/calendar"

// Severity grades a drama event.
type Severity string

const (
	// SeverityMinor events apply their effects immediately with no decision.
	SeverityMinor Severity = "minor"
	// SeverityMajor events wait for a player decision between choices.
	SeverityMajor Severity = "major"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	return s == SeverityMinor || s == SeverityMajor
}

// Selector chooses which roster member a template or effect targets.
type Selector string

const (
	// SelectorAny picks uniformly among players satisfying the template's
	// player-scoped conditions.
	SelectorAny Selector = "any"
	// SelectorAll requires every roster member to qualify; the subject is
	// picked uniformly.
	SelectorAll Selector = "all"
	// SelectorStarPlayer targets the roster's highest-rated member.
	SelectorStarPlayer Selector = "star_player"
	// SelectorTriggering targets the player that triggered the instance.
	SelectorTriggering Selector = "triggering"
	// SelectorRandom picks uniformly among the whole roster regardless of
	// conditions.
	SelectorRandom Selector = "random"
)

// IsValid reports whether s is a known selector.
func (s Selector) IsValid() bool {
	switch s {
	case SelectorAny, SelectorAll, SelectorStarPlayer, SelectorTriggering, SelectorRandom:
		return true
	}
	return false
}

// ConditionKind is the closed set of condition variants. Unknown kinds are a
// load-time validation error, never a silent runtime no-op.
type ConditionKind string

const (
	CondFlagActive             ConditionKind = "flag_active"
	CondFlagAbsent             ConditionKind = "flag_absent"
	CondPlayerMoraleBelow      ConditionKind = "player_morale_below"
	CondPlayerMoraleAbove      ConditionKind = "player_morale_above"
	CondPlayerStatBelow        ConditionKind = "player_stat_below"
	CondPlayerStatAbove        ConditionKind = "player_stat_above"
	CondTeamChemistryBelow     ConditionKind = "team_chemistry_below"
	CondTeamChemistryAbove     ConditionKind = "team_chemistry_above"
	CondWinStreakAtLeast       ConditionKind = "win_streak_at_least"
	CondLossStreakAtLeast      ConditionKind = "loss_streak_at_least"
	CondRandomChance           ConditionKind = "random_chance"
	CondSeasonPhase            ConditionKind = "season_phase"
	CondBracketPositionAtMost  ConditionKind = "bracket_position_at_most"
	CondPersonalityIs          ConditionKind = "personality_is"
	CondContractExpiringWithin ConditionKind = "contract_expiring_within"
)

// IsValid reports whether k is a known condition kind.
func (k ConditionKind) IsValid() bool {
	switch k {
	case CondFlagActive, CondFlagAbsent,
		CondPlayerMoraleBelow, CondPlayerMoraleAbove,
		CondPlayerStatBelow, CondPlayerStatAbove,
		CondTeamChemistryBelow, CondTeamChemistryAbove,
		CondWinStreakAtLeast, CondLossStreakAtLeast,
		CondRandomChance, CondSeasonPhase, CondBracketPositionAtMost,
		CondPersonalityIs, CondContractExpiringWithin:
		return true
	}
	return false
}

// playerScoped reports whether the condition evaluates per candidate player.
func (k ConditionKind) playerScoped() bool {
	switch k {
	case CondPlayerMoraleBelow, CondPlayerMoraleAbove,
		CondPlayerStatBelow, CondPlayerStatAbove,
		CondPersonalityIs, CondContractExpiringWithin:
		return true
	}
	return false
}

// Condition is one entry in a template's conjunction. Fields are keyed by
// Kind; unused fields stay zero.
type Condition struct {
	Kind ConditionKind
	// Flag names the flag for flag_active/flag_absent. PlayerScoped flags
	// key on (Flag, subject player id) instead of (Flag, "").
	Flag         string
	PlayerScoped bool
	// Value carries thresholds, streak lengths, chance percentages, and day
	// counts.
	Value int
	// Stat names the player stat for stat threshold conditions.
	Stat string
	// Phase is the required phase for season_phase.
	Phase calendar.SeasonPhase
	// Trait is the required personality trait for personality_is.
	Trait string
}

// EffectKind is the closed set of effect variants.
type EffectKind string

const (
	EffectPlayerMorale    EffectKind = "player_morale"
	EffectPlayerStat      EffectKind = "player_stat"
	EffectTeamChemistry   EffectKind = "team_chemistry"
	EffectTeamBudget      EffectKind = "team_budget"
	EffectSetFlag         EffectKind = "set_flag"
	EffectClearFlag       EffectKind = "clear_flag"
	EffectTriggerTemplate EffectKind = "trigger_template"
)

// IsValid reports whether k is a known effect kind.
func (k EffectKind) IsValid() bool {
	switch k {
	case EffectPlayerMorale, EffectPlayerStat, EffectTeamChemistry,
		EffectTeamBudget, EffectSetFlag, EffectClearFlag, EffectTriggerTemplate:
		return true
	}
	return false
}

// Effect is one applied consequence. Numeric deltas on morale, stats, and
// chemistry are clamped to 0-100 at application time.
type Effect struct {
	Kind EffectKind
	// Selector scopes player-targeted effects; empty means the triggering
	// player.
	Selector Selector
	// Stat names the player stat for player_stat.
	Stat string
	// Delta is the signed change for morale, stat, and chemistry effects.
	Delta int
	// Amount is the signed budget change in cents.
	Amount int64
	// Flag names the flag for set_flag/clear_flag. PlayerScoped flags key on
	// the targeted player.
	Flag         string
	PlayerScoped bool
	// DurationDays bounds a set flag's lifetime.
	DurationDays int
	// TemplateID is the chained template for trigger_template.
	TemplateID string
}

// Choice is one decision option on a major template.
type Choice struct {
	ID          string
	Label       string
	OutcomeText string
	Effects     []Effect
	// TriggersEventID instantiates another template immediately on pick,
	// bypassing that template's own gating.
	TriggersEventID string
}

// Template is one authored drama event definition. Templates are read-only
// at runtime.
type Template struct {
	ID       string
	Category string
	Severity Severity
	Title    string
	Text     string

	Conditions  []Condition
	Probability int
	Selector    Selector

	CooldownDays  int
	OncePerSeason bool

	// Effects apply immediately for minor/no-choice templates.
	Effects []Effect
	// Choices await a player decision; effects apply only on resolution.
	Choices []Choice

	// EscalateDays replaces an unresolved instance after this many days.
	EscalateDays         int
	EscalationTemplateID string
}

// HasChoices reports whether the template awaits a player decision.
func (t Template) HasChoices() bool {
	return len(t.Choices) > 0
}

// Choice returns the choice with the given id.
func (t Template) Choice(id string) (Choice, bool) {
	for _, c := range t.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}
