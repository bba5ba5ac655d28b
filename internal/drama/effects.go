package drama

import (
	"context"
	"fmt"

	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/world"
)

// applyEffects applies effects in order against live store state. Numeric
// morale/stat/chemistry results are clamped to 0-100 before writing, so
// stored state is always valid. Trigger effects instantiate their target
// template immediately and return the resulting instances.
func (e *Engine) applyEffects(ctx context.Context, snap world.Snapshot, effects []Effect, subject world.Player) ([]Instance, error) {
	var chained []Instance

	for _, eff := range effects {
		switch eff.Kind {
		case EffectPlayerMorale:
			for _, target := range e.effectTargets(eff, snap, subject) {
				current, err := e.store.GetPlayer(ctx, target.ID)
				if err != nil {
					return nil, fmt.Errorf("load player %s: %w", target.ID, err)
				}
				if err := e.store.SetPlayerMorale(ctx, target.ID, world.ClampPercent(current.Morale+eff.Delta)); err != nil {
					return nil, fmt.Errorf("set morale for %s: %w", target.ID, err)
				}
			}

		case EffectPlayerStat:
			for _, target := range e.effectTargets(eff, snap, subject) {
				current, err := e.store.GetPlayer(ctx, target.ID)
				if err != nil {
					return nil, fmt.Errorf("load player %s: %w", target.ID, err)
				}
				if err := e.store.SetPlayerStat(ctx, target.ID, eff.Stat, world.ClampPercent(current.Stats[eff.Stat]+eff.Delta)); err != nil {
					return nil, fmt.Errorf("set stat %s for %s: %w", eff.Stat, target.ID, err)
				}
			}

		case EffectTeamChemistry:
			current, err := e.store.GetTeam(ctx, snap.Team.ID)
			if err != nil {
				return nil, fmt.Errorf("load team %s: %w", snap.Team.ID, err)
			}
			if err := e.store.SetTeamChemistry(ctx, snap.Team.ID, world.ClampPercent(current.Chemistry+eff.Delta)); err != nil {
				return nil, fmt.Errorf("set chemistry for %s: %w", snap.Team.ID, err)
			}

		case EffectTeamBudget:
			if err := e.store.AddTeamBudget(ctx, snap.Team.ID, eff.Amount); err != nil {
				return nil, fmt.Errorf("adjust budget for %s: %w", snap.Team.ID, err)
			}

		case EffectSetFlag:
			key := world.FlagKey{Name: eff.Flag}
			if eff.PlayerScoped {
				key.PlayerID = subject.ID
			}
			e.flags.Set(key, calendar.DateOf(snap.Date).AddDate(0, 0, eff.DurationDays))

		case EffectClearFlag:
			key := world.FlagKey{Name: eff.Flag}
			if eff.PlayerScoped {
				key.PlayerID = subject.ID
			}
			e.flags.Clear(key)

		case EffectTriggerTemplate:
			tmpl, ok := e.catalog.Template(eff.TemplateID)
			if !ok {
				return nil, errors.New(errors.CodeDramaTemplateUnknown,
					fmt.Sprintf("effect triggers unknown template %q", eff.TemplateID))
			}
			inst, more, err := e.instantiate(ctx, tmpl, snap, subject)
			if err != nil {
				return nil, err
			}
			chained = append(chained, inst)
			chained = append(chained, more...)
		}
	}

	return chained, nil
}

// effectTargets resolves the players an effect touches. An empty selector
// targets the triggering subject.
func (e *Engine) effectTargets(eff Effect, snap world.Snapshot, subject world.Player) []world.Player {
	switch eff.Selector {
	case SelectorAll:
		return snap.Roster
	case SelectorStarPlayer:
		star, ok := snap.StarPlayer()
		if !ok {
			return nil
		}
		return []world.Player{star}
	case SelectorRandom, SelectorAny:
		if len(snap.Roster) == 0 {
			return nil
		}
		return []world.Player{snap.Roster[e.rng.Intn(len(snap.Roster))]}
	default: // triggering or unset
		if subject.ID == "" {
			return nil
		}
		return []world.Player{subject}
	}
}
