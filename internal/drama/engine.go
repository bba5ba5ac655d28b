package drama

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/platform/id"
	"github.com/pitchside/frontoffice/internal/world"
)

// maxHistory bounds the retained instance history.
const maxHistory = 100

// Engine evaluates the drama catalog against world state day by day and owns
// the runtime narrative state: open instances, bounded history, flags,
// cooldowns, and per-season exhaustion.
//
// The engine is deterministic with respect to its seed: given the same
// catalog, state, and world snapshots, it fires the same instances.
type Engine struct {
	catalog *Catalog
	store   world.Store
	rng     *rand.Rand
	idGen   func() (string, error)
	tracer  trace.Tracer

	active    []Instance
	history   []Instance
	flags     world.FlagSet
	cooldowns world.CooldownSet
	exhausted map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides instance id generation, mainly for tests.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(e *Engine) { e.idGen = gen }
}

// NewEngine creates an engine over a validated catalog. The seed fixes the
// probability stream.
func NewEngine(catalog *Catalog, store world.Store, seed int64, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		store:     store,
		rng:       rand.New(rand.NewSource(seed)),
		idGen:     id.NewID,
		tracer:    otel.Tracer("frontoffice/drama"),
		flags:     world.FlagSet{},
		cooldowns: world.CooldownSet{},
		exhausted: map[string]bool{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the open instances.
func (e *Engine) Active() []Instance {
	out := make([]Instance, len(e.active))
	copy(out, e.active)
	return out
}

// History returns the retained closed instances, oldest first.
func (e *Engine) History() []Instance {
	out := make([]Instance, len(e.history))
	copy(out, e.history)
	return out
}

// Flags exposes the live flag set. The orchestrator persists it through the
// store layer.
func (e *Engine) Flags() world.FlagSet {
	return e.flags
}

// Cooldowns exposes the live cooldown set.
func (e *Engine) Cooldowns() world.CooldownSet {
	return e.cooldowns
}

// ResetSeason clears per-season exhaustion at a season boundary. Flags and
// cooldowns are left alone; they expire by date arithmetic.
func (e *Engine) ResetSeason() {
	e.exhausted = map[string]bool{}
}

// SetCatalog replaces the catalog for subsequent evaluations. Open instances
// whose template vanished stay active until resolved or expired. The caller
// serializes this against EvaluateDay and Resolve.
func (e *Engine) SetCatalog(catalog *Catalog) {
	if catalog != nil {
		e.catalog = catalog
	}
}

// EvaluateDay runs one evaluation pass for date in snap. It returns the
// instances newly triggered or escalated this day.
//
// Flags are read once per pass: conditions evaluate against a frozen view
// captured here, so an effect clearing a flag mid-pass cannot stop a later
// template whose conditions already held.
func (e *Engine) EvaluateDay(ctx context.Context, snap world.Snapshot) ([]Instance, error) {
	ctx, span := e.tracer.Start(ctx, "drama.evaluate_day",
		trace.WithAttributes(attribute.String("sim.date", calendar.DateOf(snap.Date).Format("2006-01-02"))))
	defer span.End()

	flagsView := e.flags.Clone()
	var fired []Instance

	for _, tmpl := range e.catalog.Templates() {
		if e.exhausted[tmpl.ID] {
			continue
		}
		if e.cooldowns.OnCooldown(tmpl.ID, snap.Date, tmpl.CooldownDays) {
			continue
		}
		if e.hasOpenInstance(tmpl.ID) {
			continue
		}
		subject, ok := e.pickSubject(tmpl, snap, flagsView)
		if !ok {
			continue
		}
		if e.rng.Intn(100) >= tmpl.Probability {
			continue
		}
		inst, chained, err := e.instantiate(ctx, tmpl, snap, subject)
		if err != nil {
			return nil, err
		}
		fired = append(fired, inst)
		fired = append(fired, chained...)
	}

	escalated, err := e.escalateOverdue(ctx, snap)
	if err != nil {
		return nil, err
	}
	fired = append(fired, escalated...)

	span.SetAttributes(attribute.Int("drama.fired", len(fired)))
	return fired, nil
}

// Resolve applies the player's decision on a pending instance: the chosen
// option's effects apply, the instance moves to history as resolved, and any
// chained template fires immediately.
func (e *Engine) Resolve(ctx context.Context, snap world.Snapshot, instanceID, choiceID string) (Instance, []Instance, error) {
	idx := -1
	for i, inst := range e.active {
		if inst.ID == instanceID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Instance{}, nil, errors.New(errors.CodeDramaInstanceNotFound,
			fmt.Sprintf("drama instance %q not found", instanceID))
	}
	inst := e.active[idx]
	if !inst.Status.IsOpen() {
		return Instance{}, nil, errors.New(errors.CodeDramaInstanceNotPending,
			fmt.Sprintf("drama instance %q is %s", instanceID, inst.Status))
	}

	tmpl, ok := e.catalog.Template(inst.TemplateID)
	if !ok {
		return Instance{}, nil, errors.New(errors.CodeDramaTemplateUnknown,
			fmt.Sprintf("template %q not in catalog", inst.TemplateID))
	}
	choice, ok := tmpl.Choice(choiceID)
	if !ok {
		return Instance{}, nil, errors.New(errors.CodeDramaInvalidChoice,
			fmt.Sprintf("template %q has no choice %q", tmpl.ID, choiceID))
	}

	subject, _ := snap.Player(inst.TriggeringPlayerID)
	chained, err := e.applyEffects(ctx, snap, choice.Effects, subject)
	if err != nil {
		return Instance{}, nil, err
	}

	resolvedDate := calendar.DateOf(snap.Date)
	inst.Status = StatusResolved
	inst.ResolvedDate = &resolvedDate
	inst.ChosenOptionID = choice.ID
	inst.OutcomeText = choice.OutcomeText
	inst.AppliedEffects = append(inst.AppliedEffects, choice.Effects...)

	e.active = append(e.active[:idx], e.active[idx+1:]...)
	e.pushHistory(inst)

	if choice.TriggersEventID != "" {
		next, ok := e.catalog.Template(choice.TriggersEventID)
		if !ok {
			return Instance{}, nil, errors.New(errors.CodeDramaTemplateUnknown,
				fmt.Sprintf("choice triggers unknown template %q", choice.TriggersEventID))
		}
		triggered, more, err := e.instantiate(ctx, next, snap, subject)
		if err != nil {
			return Instance{}, nil, err
		}
		chained = append(chained, triggered)
		chained = append(chained, more...)
	}

	return inst, chained, nil
}

func (e *Engine) hasOpenInstance(templateID string) bool {
	for _, inst := range e.active {
		if inst.TemplateID == templateID && inst.Status.IsOpen() {
			return true
		}
	}
	return false
}

// pickSubject evaluates the template's conditions against the snapshot and,
// when they hold, selects the triggering player.
func (e *Engine) pickSubject(tmpl Template, snap world.Snapshot, flags world.FlagSet) (world.Player, bool) {
	// Team-wide conditions gate the template regardless of subject.
	for _, cond := range tmpl.Conditions {
		if cond.Kind.playerScoped() || (isFlagCond(cond.Kind) && cond.PlayerScoped) {
			continue
		}
		if !e.globalConditionHolds(cond, snap, flags) {
			return world.Player{}, false
		}
	}

	qualifies := func(p world.Player) bool {
		for _, cond := range tmpl.Conditions {
			if !cond.Kind.playerScoped() && !(isFlagCond(cond.Kind) && cond.PlayerScoped) {
				continue
			}
			if !playerConditionHolds(cond, p, snap, flags) {
				return false
			}
		}
		return true
	}

	hasPlayerConds := false
	for _, cond := range tmpl.Conditions {
		if cond.Kind.playerScoped() || (isFlagCond(cond.Kind) && cond.PlayerScoped) {
			hasPlayerConds = true
			break
		}
	}

	if len(snap.Roster) == 0 {
		if hasPlayerConds {
			return world.Player{}, false
		}
		return world.Player{}, true
	}

	switch tmpl.Selector {
	case SelectorStarPlayer:
		star, ok := snap.StarPlayer()
		if !ok || !qualifies(star) {
			return world.Player{}, false
		}
		return star, true

	case SelectorRandom:
		pick := snap.Roster[e.rng.Intn(len(snap.Roster))]
		if !qualifies(pick) {
			return world.Player{}, false
		}
		return pick, true

	case SelectorAll:
		for _, p := range snap.Roster {
			if !qualifies(p) {
				return world.Player{}, false
			}
		}
		return snap.Roster[e.rng.Intn(len(snap.Roster))], true

	default: // any, triggering, or unset
		var pool []world.Player
		for _, p := range snap.Roster {
			if qualifies(p) {
				pool = append(pool, p)
			}
		}
		if len(pool) == 0 {
			return world.Player{}, false
		}
		return pool[e.rng.Intn(len(pool))], true
	}
}

func isFlagCond(kind ConditionKind) bool {
	return kind == CondFlagActive || kind == CondFlagAbsent
}

func (e *Engine) globalConditionHolds(cond Condition, snap world.Snapshot, flags world.FlagSet) bool {
	switch cond.Kind {
	case CondFlagActive:
		return flags.Active(world.FlagKey{Name: cond.Flag}, snap.Date)
	case CondFlagAbsent:
		return !flags.Active(world.FlagKey{Name: cond.Flag}, snap.Date)
	case CondTeamChemistryBelow:
		return snap.Team.Chemistry < cond.Value
	case CondTeamChemistryAbove:
		return snap.Team.Chemistry > cond.Value
	case CondWinStreakAtLeast:
		return snap.Team.WinStreak >= cond.Value
	case CondLossStreakAtLeast:
		return snap.Team.LossStreak >= cond.Value
	case CondRandomChance:
		return e.rng.Intn(100) < cond.Value
	case CondSeasonPhase:
		return snap.Phase == cond.Phase
	case CondBracketPositionAtMost:
		return snap.Team.BracketPosition > 0 && snap.Team.BracketPosition <= cond.Value
	}
	return false
}

func playerConditionHolds(cond Condition, p world.Player, snap world.Snapshot, flags world.FlagSet) bool {
	switch cond.Kind {
	case CondFlagActive:
		return flags.Active(world.FlagKey{Name: cond.Flag, PlayerID: p.ID}, snap.Date)
	case CondFlagAbsent:
		return !flags.Active(world.FlagKey{Name: cond.Flag, PlayerID: p.ID}, snap.Date)
	case CondPlayerMoraleBelow:
		return p.Morale < cond.Value
	case CondPlayerMoraleAbove:
		return p.Morale > cond.Value
	case CondPlayerStatBelow:
		return p.Stats[cond.Stat] < cond.Value
	case CondPlayerStatAbove:
		return p.Stats[cond.Stat] > cond.Value
	case CondPersonalityIs:
		return p.HasTrait(cond.Trait)
	case CondContractExpiringWithin:
		if p.ContractEnd.IsZero() {
			return false
		}
		days := calendar.DaysBetween(snap.Date, p.ContractEnd)
		return days >= 0 && days <= cond.Value
	}
	return false
}

// instantiate creates an instance of tmpl, bypassing condition and
// probability gates. Effects-only templates apply immediately and land in
// history as resolved; choice templates stay open as pending.
func (e *Engine) instantiate(ctx context.Context, tmpl Template, snap world.Snapshot, subject world.Player) (Instance, []Instance, error) {
	instanceID, err := e.idGen()
	if err != nil {
		return Instance{}, nil, fmt.Errorf("generate instance id: %w", err)
	}

	inst := Instance{
		ID:                 instanceID,
		TemplateID:         tmpl.ID,
		Category:           tmpl.Category,
		Severity:           tmpl.Severity,
		Title:              tmpl.Title,
		Text:               tmpl.Text,
		TriggeredDate:      calendar.DateOf(snap.Date),
		TriggeringPlayerID: subject.ID,
	}

	e.cooldowns.Record(tmpl.ID, snap.Date)
	if tmpl.OncePerSeason {
		e.exhausted[tmpl.ID] = true
	}

	if tmpl.HasChoices() {
		inst.Status = StatusPending
		e.active = append(e.active, inst)
		return inst, nil, nil
	}

	chained, err := e.applyEffects(ctx, snap, tmpl.Effects, subject)
	if err != nil {
		return Instance{}, nil, err
	}
	resolvedDate := calendar.DateOf(snap.Date)
	inst.Status = StatusResolved
	inst.ResolvedDate = &resolvedDate
	inst.AppliedEffects = tmpl.Effects
	e.pushHistory(inst)
	return inst, chained, nil
}

// escalateOverdue replaces open instances older than their template's
// escalation window. Escalation is unconditional once the timer elapses; the
// replacement bypasses its own gates. Templates with a window but no
// escalation target expire instead.
func (e *Engine) escalateOverdue(ctx context.Context, snap world.Snapshot) ([]Instance, error) {
	var fired []Instance

	kept := e.active[:0]
	pending := make([]Instance, len(e.active))
	copy(pending, e.active)
	e.active = kept

	for _, inst := range pending {
		tmpl, ok := e.catalog.Template(inst.TemplateID)
		if !ok || tmpl.EscalateDays <= 0 ||
			calendar.DaysBetween(inst.TriggeredDate, snap.Date) < tmpl.EscalateDays {
			e.active = append(e.active, inst)
			continue
		}

		if tmpl.EscalationTemplateID == "" {
			inst.Status = StatusExpired
			e.pushHistory(inst)
			continue
		}

		next, ok := e.catalog.Template(tmpl.EscalationTemplateID)
		if !ok {
			// Unreachable with a validated catalog; degrade to expiry.
			log.Printf("escalate instance %s: unknown template %s", inst.ID, tmpl.EscalationTemplateID)
			inst.Status = StatusExpired
			e.pushHistory(inst)
			continue
		}

		subject, _ := snap.Player(inst.TriggeringPlayerID)
		escalatedTo, chained, err := e.instantiate(ctx, next, snap, subject)
		if err != nil {
			return nil, err
		}

		inst.Status = StatusEscalated
		inst.Escalated = true
		inst.EscalatedToEventID = escalatedTo.ID
		e.pushHistory(inst)

		fired = append(fired, escalatedTo)
		fired = append(fired, chained...)
	}
	return fired, nil
}

func (e *Engine) pushHistory(inst Instance) {
	e.history = append(e.history, inst)
	if len(e.history) > maxHistory {
		e.history = e.history[len(e.history)-maxHistory:]
	}
}
