// Package day implements the day-advance orchestrator: the single authority
// for moving the simulation clock forward. One call drains the old date's
// events, locks and resolves activities, advances the date, and evaluates the
// narrative engine for the new day.
package day

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/progression"
	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/world"
)

// DefaultAutosaveInterval is how many simulated days pass between autosave
// boundaries.
const DefaultAutosaveInterval = 7

// AdvanceResult reports everything one day advance did.
type AdvanceResult struct {
	NewDate               time.Time
	ProcessedEvents       []calendar.Event
	SkippedEvents         []calendar.Event
	SimulatedMatches      []MatchResult
	NewlyUnlockedFeatures []progression.Feature
	DramaEvents           []drama.Instance
	ActivityResults       []ActivityOutcome
	FinanceWarnings       []string
	AutosaveDue           bool
}

// Orchestrator advances the simulation one day at a time. All clock mutation
// funnels through AdvanceDay; concurrent calls are rejected, not queued.
type Orchestrator struct {
	store        storage.Store
	drama        *drama.Engine
	gate         *progression.Gate
	phases       calendar.PhaseSchedule
	matches      MatchResolver
	finance      FinanceResolver
	tournaments  TournamentResolver
	activities   ActivityResolver
	playerTeamID string

	autosaveInterval int
	tracer           trace.Tracer

	mu      sync.Mutex
	current time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAutosaveInterval overrides the autosave boundary spacing in days.
func WithAutosaveInterval(days int) Option {
	return func(o *Orchestrator) {
		if days > 0 {
			o.autosaveInterval = days
		}
	}
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Store        storage.Store
	Drama        *drama.Engine
	Gate         *progression.Gate
	Phases       calendar.PhaseSchedule
	Matches      MatchResolver
	Finance      FinanceResolver
	Tournaments  TournamentResolver
	Activities   ActivityResolver
	PlayerTeamID string
}

// NewOrchestrator creates an orchestrator starting at the given date.
func NewOrchestrator(deps Deps, start time.Time, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:            deps.Store,
		drama:            deps.Drama,
		gate:             deps.Gate,
		phases:           deps.Phases,
		matches:          deps.Matches,
		finance:          deps.Finance,
		tournaments:      deps.Tournaments,
		activities:       deps.Activities,
		playerTeamID:     deps.PlayerTeamID,
		autosaveInterval: DefaultAutosaveInterval,
		tracer:           otel.Tracer("frontoffice/day"),
		current:          calendar.DateOf(start),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CurrentDate returns the simulation's current date.
func (o *Orchestrator) CurrentDate() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Restore loads the persisted clock and narrative state, if any. Call before
// the first AdvanceDay when resuming a saved simulation.
func (o *Orchestrator) Restore(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	date, ok, err := o.store.LoadClock(ctx)
	if err != nil {
		return fmt.Errorf("load clock: %w", err)
	}
	if ok {
		o.current = date
	}

	state, ok, err := o.store.LoadDramaState(ctx)
	if err != nil {
		return fmt.Errorf("load drama state: %w", err)
	}
	if ok {
		o.drama.Restore(state)
	}
	return nil
}

// AdvanceDay runs the day-advance procedure once. A second call while one is
// in flight fails immediately with CodeDayAdvanceInFlight; callers own
// serialization, the guard only turns interleaving into a visible error.
func (o *Orchestrator) AdvanceDay(ctx context.Context) (AdvanceResult, error) {
	if !o.mu.TryLock() {
		return AdvanceResult{}, errors.New(errors.CodeDayAdvanceInFlight,
			"a day advance is already in progress")
	}
	defer o.mu.Unlock()

	today := o.current
	ctx, span := o.tracer.Start(ctx, "day.advance",
		trace.WithAttributes(attribute.String("sim.date", today.Format("2006-01-02"))))
	defer span.End()

	var result AdvanceResult
	phase := o.phases.PhaseAt(today)

	events, err := o.store.ListEventsByDate(ctx, today)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("list events for %s: %w", today.Format("2006-01-02"), err)
	}

	var required, activities []calendar.Event
	for _, evt := range events {
		if evt.Processed {
			continue
		}
		if evt.Type.IsActivity() {
			activities = append(activities, evt)
		} else {
			required = append(required, evt)
		}
	}

	configs, err := o.lockActivities(ctx, today, activities)
	if err != nil {
		return AdvanceResult{}, err
	}

	if err := o.resolveRequired(ctx, phase, required, &result); err != nil {
		return AdvanceResult{}, err
	}

	if err := o.resolveActivities(ctx, activities, configs, &result); err != nil {
		return AdvanceResult{}, err
	}

	if err := o.clearConfigs(ctx, today); err != nil {
		return AdvanceResult{}, err
	}

	before := o.gate.UnlockedFeatures(today, phase)

	newDate := calendar.NextDay(today)
	o.current = newDate
	if err := o.store.SaveClock(ctx, newDate); err != nil {
		return AdvanceResult{}, fmt.Errorf("save clock: %w", err)
	}
	result.NewDate = newDate

	newPhase := o.phases.PhaseAt(newDate)
	after := o.gate.UnlockedFeatures(newDate, newPhase)
	result.NewlyUnlockedFeatures = diffFeatures(before, after)

	snap, err := o.snapshot(ctx, newDate, newPhase)
	if err != nil {
		return AdvanceResult{}, err
	}
	fired, err := o.drama.EvaluateDay(ctx, snap)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("evaluate drama: %w", err)
	}
	result.DramaEvents = fired

	result.AutosaveDue = o.autosaveDue(newDate)
	if result.AutosaveDue {
		if err := o.store.SaveDramaState(ctx, o.drama.State()); err != nil {
			return AdvanceResult{}, fmt.Errorf("save drama state: %w", err)
		}
	}

	span.SetAttributes(
		attribute.Int("day.processed", len(result.ProcessedEvents)),
		attribute.Int("day.skipped", len(result.SkippedEvents)),
		attribute.Int("day.drama_fired", len(result.DramaEvents)),
	)
	return result, nil
}

// SwapDramaCatalog installs a hot-reloaded catalog between day advances.
func (o *Orchestrator) SwapDramaCatalog(catalog *drama.Catalog) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drama.SetCatalog(catalog)
}

// ResolveDrama applies the player's choice on a pending narrative instance at
// the current date.
func (o *Orchestrator) ResolveDrama(ctx context.Context, instanceID, choiceID string) (drama.Instance, []drama.Instance, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap, err := o.snapshot(ctx, o.current, o.phases.PhaseAt(o.current))
	if err != nil {
		return drama.Instance{}, nil, err
	}
	return o.drama.Resolve(ctx, snap, instanceID, choiceID)
}

// lockActivities freezes today's activities: configured ones transition to
// locked, unconfigured ones get a synthesized default config. No activity day
// goes unresolved because the player forgot to configure it.
func (o *Orchestrator) lockActivities(ctx context.Context, today time.Time, events []calendar.Event) (map[string]activity.Config, error) {
	configs := make(map[string]activity.Config, len(events))

	for i, evt := range events {
		activityType, hasConfig := evt.Type.ActivityType()

		cfg, err := o.store.GetActivityConfig(ctx, evt.ID)
		switch {
		case err == nil:
			if cfg.Status == activity.StateConfigured {
				if err := activity.CanTransition(cfg.Status, activity.StateLocked); err != nil {
					return nil, err
				}
				cfg.Status = activity.StateLocked
				if err := o.store.PutActivityConfig(ctx, cfg); err != nil {
					return nil, fmt.Errorf("lock config %s: %w", evt.ID, err)
				}
			}
			configs[evt.ID] = cfg

		case errors.IsCode(err, errors.CodeNotFound):
			if !hasConfig {
				// Team activities carry no configuration; the lifecycle alone
				// tracks them.
				break
			}
			cfg = activity.AutoConfig(evt.ID, activityType, today)
			if err := o.store.PutActivityConfig(ctx, cfg); err != nil {
				return nil, fmt.Errorf("auto-configure %s: %w", evt.ID, err)
			}
			configs[evt.ID] = cfg

		default:
			return nil, fmt.Errorf("load config %s: %w", evt.ID, err)
		}

		evt.Lifecycle = activity.StateLocked
		if err := o.store.PutEvent(ctx, evt); err != nil {
			return nil, fmt.Errorf("lock event %s: %w", evt.ID, err)
		}
		events[i] = evt
	}
	return configs, nil
}

// resolveRequired dispatches matches, payroll, and tournament markers to
// their resolvers. Events whose phase is not current are skipped and stay
// pending; events with missing data are logged and marked processed so one
// malformed record never blocks the day.
func (o *Orchestrator) resolveRequired(ctx context.Context, phase calendar.SeasonPhase, events []calendar.Event, result *AdvanceResult) error {
	for _, evt := range events {
		switch evt.Type {
		case calendar.EventMatch, calendar.EventPlaceholderMatch:
			if evt.Match == nil || evt.Match.MatchID == "" {
				log.Printf("event %s: match payload missing, marking processed", evt.ID)
				if err := o.markProcessed(ctx, evt, result); err != nil {
					return err
				}
				continue
			}
			if evt.Type == calendar.EventPlaceholderMatch && !evt.Match.Resolved {
				result.SkippedEvents = append(result.SkippedEvents, evt)
				continue
			}
			if evt.Match.Phase != phase {
				result.SkippedEvents = append(result.SkippedEvents, evt)
				continue
			}
			matchResult, err := o.matches.Simulate(ctx, evt.Match.MatchID)
			if err != nil {
				return fmt.Errorf("simulate match %s: %w", evt.Match.MatchID, err)
			}
			if matchResult == nil {
				log.Printf("event %s: match %s could not be simulated, marking processed", evt.ID, evt.Match.MatchID)
			} else {
				result.SimulatedMatches = append(result.SimulatedMatches, *matchResult)
			}
			if err := o.markProcessed(ctx, evt, result); err != nil {
				return err
			}

		case calendar.EventSalaryPayment:
			if evt.TeamID == "" {
				log.Printf("event %s: payroll team missing, marking processed", evt.ID)
			} else {
				warnings, err := o.finance.ProcessMonthlyFinances(ctx, evt.TeamID)
				if err != nil {
					return fmt.Errorf("process finances for %s: %w", evt.TeamID, err)
				}
				result.FinanceWarnings = append(result.FinanceWarnings, warnings...)
			}
			if err := o.markProcessed(ctx, evt, result); err != nil {
				return err
			}

		case calendar.EventTournamentStart:
			if evt.TournamentID == "" {
				log.Printf("event %s: tournament id missing, marking processed", evt.ID)
			} else if err := o.tournaments.StartStage(ctx, evt.TournamentID); err != nil {
				return fmt.Errorf("start tournament %s: %w", evt.TournamentID, err)
			}
			if err := o.markProcessed(ctx, evt, result); err != nil {
				return err
			}

		default:
			log.Printf("event %s: unhandled required type %s, marking processed", evt.ID, evt.Type)
			if err := o.markProcessed(ctx, evt, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveActivities resolves all locked activities in one batch and completes
// their lifecycles.
func (o *Orchestrator) resolveActivities(ctx context.Context, events []calendar.Event, configs map[string]activity.Config, result *AdvanceResult) error {
	batch := make([]activity.Config, 0, len(configs))
	for _, evt := range events {
		if cfg, ok := configs[evt.ID]; ok {
			batch = append(batch, cfg)
		}
	}

	if len(batch) > 0 {
		outcomes, err := o.activities.ResolveAll(ctx, batch)
		if err != nil {
			return fmt.Errorf("resolve activities: %w", err)
		}
		result.ActivityResults = append(result.ActivityResults, outcomes...)
	}

	for _, evt := range events {
		if err := activity.CanTransition(activity.StateLocked, activity.StateCompleted); err != nil {
			return err
		}
		if cfg, ok := configs[evt.ID]; ok {
			cfg.Status = activity.StateCompleted
			if err := o.store.PutActivityConfig(ctx, cfg); err != nil {
				return fmt.Errorf("complete config %s: %w", evt.ID, err)
			}
		}
		evt.Lifecycle = activity.StateCompleted
		if err := o.markProcessed(ctx, evt, result); err != nil {
			return err
		}
	}
	return nil
}

// clearConfigs removes today's activity configs; resolution results are the
// archive, config state is not.
func (o *Orchestrator) clearConfigs(ctx context.Context, today time.Time) error {
	configs, err := o.store.ListActivityConfigsByDate(ctx, today)
	if err != nil {
		return fmt.Errorf("list configs for %s: %w", today.Format("2006-01-02"), err)
	}
	for _, cfg := range configs {
		if err := o.store.DeleteActivityConfig(ctx, cfg.EventID); err != nil && !errors.IsCode(err, errors.CodeNotFound) {
			return fmt.Errorf("clear config %s: %w", cfg.EventID, err)
		}
	}
	return nil
}

func (o *Orchestrator) markProcessed(ctx context.Context, evt calendar.Event, result *AdvanceResult) error {
	evt.Processed = true
	if err := o.store.PutEvent(ctx, evt); err != nil {
		return fmt.Errorf("mark event %s processed: %w", evt.ID, err)
	}
	result.ProcessedEvents = append(result.ProcessedEvents, evt)
	return nil
}

// snapshot assembles the world view the narrative engine evaluates against.
func (o *Orchestrator) snapshot(ctx context.Context, date time.Time, phase calendar.SeasonPhase) (world.Snapshot, error) {
	team, err := o.store.GetTeam(ctx, o.playerTeamID)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("load team %s: %w", o.playerTeamID, err)
	}
	roster, err := o.store.ListRoster(ctx, o.playerTeamID)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("load roster: %w", err)
	}
	return world.Snapshot{
		Date:      date,
		Phase:     phase,
		Team:      team,
		Roster:    roster,
		Flags:     o.drama.Flags(),
		Cooldowns: o.drama.Cooldowns(),
	}, nil
}

func (o *Orchestrator) autosaveDue(date time.Time) bool {
	start := o.phases.SeasonStart()
	if start.IsZero() {
		return false
	}
	elapsed := calendar.DaysBetween(start, date)
	return elapsed > 0 && elapsed%o.autosaveInterval == 0
}

func diffFeatures(before, after []progression.Feature) []progression.Feature {
	had := make(map[progression.Feature]bool, len(before))
	for _, f := range before {
		had[f] = true
	}
	var out []progression.Feature
	for _, f := range after {
		if !had[f] {
			out = append(out, f)
		}
	}
	return out
}
