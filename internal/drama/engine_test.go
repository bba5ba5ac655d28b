package drama

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/world"
)

// fakeStore is an in-memory world.Store for engine tests.
type fakeStore struct {
	players map[string]world.Player
	teams   map[string]world.Team
}

func newFakeStore(team world.Team, players ...world.Player) *fakeStore {
	s := &fakeStore{
		players: map[string]world.Player{},
		teams:   map[string]world.Team{team.ID: team},
	}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *fakeStore) GetPlayer(_ context.Context, playerID string) (world.Player, error) {
	p, ok := s.players[playerID]
	if !ok {
		return world.Player{}, fmt.Errorf("player %s not found", playerID)
	}
	return p, nil
}

func (s *fakeStore) SetPlayerMorale(_ context.Context, playerID string, value int) error {
	p := s.players[playerID]
	p.Morale = value
	s.players[playerID] = p
	return nil
}

func (s *fakeStore) SetPlayerStat(_ context.Context, playerID, stat string, value int) error {
	p := s.players[playerID]
	if p.Stats == nil {
		p.Stats = map[string]int{}
	}
	p.Stats[stat] = value
	s.players[playerID] = p
	return nil
}

func (s *fakeStore) GetTeam(_ context.Context, teamID string) (world.Team, error) {
	t, ok := s.teams[teamID]
	if !ok {
		return world.Team{}, fmt.Errorf("team %s not found", teamID)
	}
	return t, nil
}

func (s *fakeStore) SetTeamChemistry(_ context.Context, teamID string, value int) error {
	t := s.teams[teamID]
	t.Chemistry = value
	s.teams[teamID] = t
	return nil
}

func (s *fakeStore) AddTeamBudget(_ context.Context, teamID string, delta int64) error {
	t := s.teams[teamID]
	t.Budget += delta
	s.teams[teamID] = t
	return nil
}

func (s *fakeStore) ListRoster(_ context.Context, teamID string) ([]world.Player, error) {
	var out []world.Player
	for _, p := range s.players {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) snapshot(date time.Time, phase calendar.SeasonPhase) world.Snapshot {
	team := s.teams["team1"]
	var roster []world.Player
	for _, id := range []string{"p1", "p2", "p3"} {
		if p, ok := s.players[id]; ok {
			roster = append(roster, p)
		}
	}
	return world.Snapshot{Date: date, Phase: phase, Team: team, Roster: roster}
}

func testCatalog(t *testing.T, templates ...Template) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(templates)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return catalog
}

func testEngine(t *testing.T, store *fakeStore, seed int64, templates ...Template) *Engine {
	t.Helper()
	n := 0
	return NewEngine(testCatalog(t, templates...), store, seed, WithIDGenerator(func() (string, error) {
		n++
		return fmt.Sprintf("inst%03d", n), nil
	}))
}

func defaultStore() *fakeStore {
	return newFakeStore(
		world.Team{ID: "team1", Chemistry: 50, Budget: 100_000},
		world.Player{ID: "p1", Rating: 90, Morale: 55, Stats: map[string]int{"mechanics": 70}},
		world.Player{ID: "p2", Rating: 80, Morale: 70, Stats: map[string]int{"mechanics": 60}},
		world.Player{ID: "p3", Rating: 70, Morale: 90, Stats: map[string]int{"mechanics": 50}},
	)
}

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func TestProbabilityConvergence(t *testing.T) {
	tmpl := Template{
		ID:          "ego_underutilized",
		Category:    "ego",
		Severity:    SeverityMinor,
		Probability: 30,
		Conditions: []Condition{
			{Kind: CondPlayerMoraleBelow, Value: 60},
		},
		Effects: []Effect{
			{Kind: EffectSetFlag, Flag: "felt_underutilized", PlayerScoped: true, DurationDays: 1},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 42, tmpl)

	fired := 0
	for i := 1; i <= 1000; i++ {
		instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(i), calendar.PhaseStage1))
		if err != nil {
			t.Fatalf("evaluate day %d: %v", i, err)
		}
		fired += len(instances)
	}

	// 1,000 independent 30% rolls: expect ~300, allow 4 sigma (~58).
	if fired < 242 || fired > 358 {
		t.Fatalf("expected roughly 300 firings, got %d", fired)
	}
}

func TestCooldownPreventsRefire(t *testing.T) {
	tmpl := Template{
		ID:           "slump",
		Severity:     SeverityMinor,
		Probability:  100,
		CooldownDays: 7,
		Effects:      []Effect{{Kind: EffectTeamChemistry, Delta: -5}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)

	var firedDays []int
	for i := 1; i <= 20; i++ {
		instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(i), calendar.PhaseStage1))
		if err != nil {
			t.Fatalf("evaluate day %d: %v", i, err)
		}
		if len(instances) > 0 {
			firedDays = append(firedDays, i)
		}
	}

	for i := 1; i < len(firedDays); i++ {
		if gap := firedDays[i] - firedDays[i-1]; gap < 7 {
			t.Fatalf("cooldown violated: firings on days %v", firedDays)
		}
	}
	if len(firedDays) != 3 {
		t.Fatalf("expected firings on days 1, 8, 15, got %v", firedDays)
	}
}

func TestOncePerSeason(t *testing.T) {
	tmpl := Template{
		ID:            "title_hangover",
		Severity:      SeverityMinor,
		Probability:   100,
		OncePerSeason: true,
		Effects:       []Effect{{Kind: EffectTeamChemistry, Delta: -10}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)

	total := 0
	for i := 1; i <= 50; i++ {
		instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(i), calendar.PhaseStage1))
		if err != nil {
			t.Fatalf("evaluate day %d: %v", i, err)
		}
		total += len(instances)
	}
	if total != 1 {
		t.Fatalf("expected exactly one firing per season, got %d", total)
	}

	engine.ResetSeason()
	instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(51), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate after reset: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected firing after season reset, got %d", len(instances))
	}
}

func TestFlagsReadOncePerPass(t *testing.T) {
	// First template clears the flag the second template requires. With
	// flags frozen at pass start, the second template must still fire.
	clearer := Template{
		ID:          "clearer",
		Severity:    SeverityMinor,
		Probability: 100,
		Effects:     []Effect{{Kind: EffectClearFlag, Flag: "storm"}},
	}
	dependent := Template{
		ID:          "dependent",
		Severity:    SeverityMinor,
		Probability: 100,
		Conditions:  []Condition{{Kind: CondFlagActive, Flag: "storm"}},
		Effects:     []Effect{{Kind: EffectTeamChemistry, Delta: -1}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, clearer, dependent)
	engine.Flags().Set(world.FlagKey{Name: "storm"}, day(30))

	instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected both templates to fire, got %d", len(instances))
	}
	if engine.Flags().Active(world.FlagKey{Name: "storm"}, day(1)) {
		t.Fatal("expected flag cleared after the pass")
	}

	// Next pass reads the live set: the dependent template stays quiet.
	instances, err = engine.EvaluateDay(context.Background(), store.snapshot(day(2), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, inst := range instances {
		if inst.TemplateID == "dependent" {
			t.Fatal("expected dependent template not to fire without its flag")
		}
	}
}

func TestNoDuplicateConcurrentInstances(t *testing.T) {
	tmpl := Template{
		ID:          "roster_rift",
		Severity:    SeverityMajor,
		Probability: 100,
		Choices: []Choice{
			{ID: "side_a", Label: "Back the veteran"},
			{ID: "side_b", Label: "Back the rookie"},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)

	first, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(first) != 1 || first[0].Status != StatusPending {
		t.Fatalf("expected one pending instance, got %v", first)
	}

	second, err := engine.EvaluateDay(context.Background(), store.snapshot(day(2), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no duplicate while instance is open, got %d", len(second))
	}
}

func TestResolveAppliesChoiceEffects(t *testing.T) {
	tmpl := Template{
		ID:          "contract_gripe",
		Severity:    SeverityMajor,
		Probability: 100,
		Selector:    SelectorStarPlayer,
		Choices: []Choice{
			{
				ID:          "renegotiate",
				Label:       "Open talks",
				OutcomeText: "The star is satisfied, for now.",
				Effects: []Effect{
					{Kind: EffectPlayerMorale, Delta: 15},
					{Kind: EffectTeamBudget, Amount: -25_000},
				},
			},
			{ID: "refuse", Label: "Hold the line"},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)
	snap := store.snapshot(day(1), calendar.PhaseStage1)

	fired, err := engine.EvaluateDay(context.Background(), snap)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 || fired[0].TriggeringPlayerID != "p1" {
		t.Fatalf("expected star player instance, got %+v", fired)
	}

	resolved, chained, err := engine.Resolve(context.Background(), snap, fired[0].ID, "renegotiate")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(chained) != 0 {
		t.Fatalf("expected no chained instances, got %d", len(chained))
	}
	if resolved.Status != StatusResolved || resolved.ChosenOptionID != "renegotiate" {
		t.Fatalf("unexpected resolved instance: %+v", resolved)
	}
	if resolved.OutcomeText != "The star is satisfied, for now." {
		t.Fatalf("unexpected outcome text: %q", resolved.OutcomeText)
	}

	if store.players["p1"].Morale != 70 {
		t.Fatalf("expected morale 70, got %d", store.players["p1"].Morale)
	}
	if store.teams["team1"].Budget != 75_000 {
		t.Fatalf("expected budget 75000, got %d", store.teams["team1"].Budget)
	}
	if len(engine.Active()) != 0 {
		t.Fatal("expected no open instances after resolve")
	}
	if len(engine.History()) != 1 {
		t.Fatalf("expected one history entry, got %d", len(engine.History()))
	}
}

func TestResolveErrors(t *testing.T) {
	tmpl := Template{
		ID:          "roster_rift",
		Severity:    SeverityMajor,
		Probability: 100,
		Choices:     []Choice{{ID: "a", Label: "A"}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)
	snap := store.snapshot(day(1), calendar.PhaseStage1)

	if _, _, err := engine.Resolve(context.Background(), snap, "missing", "a"); !errors.IsCode(err, errors.CodeDramaInstanceNotFound) {
		t.Fatalf("expected instance not found, got %v", err)
	}

	fired, err := engine.EvaluateDay(context.Background(), snap)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, _, err := engine.Resolve(context.Background(), snap, fired[0].ID, "nope"); !errors.IsCode(err, errors.CodeDramaInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
}

func TestEscalationReplacesInstance(t *testing.T) {
	followUp := Template{
		ID:          "trade_demand",
		Severity:    SeverityMajor,
		Probability: 0, // never fires organically
		Choices:     []Choice{{ID: "trade", Label: "Trade them"}, {ID: "keep", Label: "Keep them"}},
	}
	tmpl := Template{
		ID:                   "role_dispute",
		Severity:             SeverityMajor,
		Probability:          100,
		EscalateDays:         3,
		EscalationTemplateID: "trade_demand",
		Choices:              []Choice{{ID: "talk", Label: "Talk it out"}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl, followUp)

	fired, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	original := fired[0]

	// Days 2 and 3: not yet overdue.
	for i := 2; i <= 3; i++ {
		instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(i), calendar.PhaseStage1))
		if err != nil {
			t.Fatalf("evaluate day %d: %v", i, err)
		}
		if len(instances) != 0 {
			t.Fatalf("expected no escalation on day %d", i)
		}
	}

	// Day 4: three days elapsed, escalation is unconditional.
	instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(4), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate day 4: %v", err)
	}
	if len(instances) != 1 || instances[0].TemplateID != "trade_demand" {
		t.Fatalf("expected trade_demand escalation, got %+v", instances)
	}
	if instances[0].TriggeringPlayerID != original.TriggeringPlayerID {
		t.Fatal("expected escalation to inherit the triggering player")
	}

	history := engine.History()
	if len(history) != 1 || history[0].Status != StatusEscalated || !history[0].Escalated {
		t.Fatalf("expected escalated history entry, got %+v", history)
	}
	if history[0].EscalatedToEventID != instances[0].ID {
		t.Fatal("expected history to link to the escalation instance")
	}
}

func TestExpiryWithoutEscalationTarget(t *testing.T) {
	tmpl := Template{
		ID:           "minor_gripe",
		Severity:     SeverityMajor,
		Probability:  100,
		EscalateDays: 2,
		Choices:      []Choice{{ID: "ok", Label: "Acknowledge"}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)

	if _, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := engine.EvaluateDay(context.Background(), store.snapshot(day(3), calendar.PhaseStage1)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	history := engine.History()
	if len(history) != 1 || history[0].Status != StatusExpired {
		t.Fatalf("expected expired instance, got %+v", history)
	}
	if len(engine.Active()) != 0 {
		t.Fatal("expected no open instances")
	}
}

func TestChainTriggerBypassesGates(t *testing.T) {
	chained := Template{
		ID:          "press_leak",
		Severity:    SeverityMinor,
		Probability: 0, // gated off; only reachable via chain
		Conditions:  []Condition{{Kind: CondTeamChemistryBelow, Value: -1}},
		Effects:     []Effect{{Kind: EffectTeamChemistry, Delta: -5}},
	}
	root := Template{
		ID:          "argument",
		Severity:    SeverityMinor,
		Probability: 100,
		Effects: []Effect{
			{Kind: EffectTriggerTemplate, TemplateID: "press_leak"},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, root, chained)

	instances, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected root and chained instance, got %d", len(instances))
	}
	if store.teams["team1"].Chemistry != 45 {
		t.Fatalf("expected chained effect applied, got chemistry %d", store.teams["team1"].Chemistry)
	}
}

func TestEffectClamping(t *testing.T) {
	tmpl := Template{
		ID:          "crushing_defeat",
		Severity:    SeverityMinor,
		Probability: 100,
		Selector:    SelectorAll,
		Effects: []Effect{
			{Kind: EffectPlayerMorale, Selector: SelectorAll, Delta: -200},
			{Kind: EffectTeamChemistry, Delta: 200},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)

	if _, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	for id, p := range store.players {
		if p.Morale != 0 {
			t.Fatalf("expected morale clamped to 0 for %s, got %d", id, p.Morale)
		}
	}
	if store.teams["team1"].Chemistry != 100 {
		t.Fatalf("expected chemistry clamped to 100, got %d", store.teams["team1"].Chemistry)
	}
}

func TestPlayerScopedFlagKeys(t *testing.T) {
	setter := Template{
		ID:          "benched",
		Severity:    SeverityMinor,
		Probability: 100,
		Selector:    SelectorStarPlayer,
		Effects: []Effect{
			{Kind: EffectSetFlag, Flag: "role_demand_refused", PlayerScoped: true, DurationDays: 10},
		},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, setter)

	if _, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	flags := engine.Flags()
	if !flags.Active(world.FlagKey{Name: "role_demand_refused", PlayerID: "p1"}, day(2)) {
		t.Fatal("expected flag keyed to star player")
	}
	if flags.Active(world.FlagKey{Name: "role_demand_refused", PlayerID: "p2"}, day(2)) {
		t.Fatal("expected no flag for other players")
	}
	if flags.Active(world.FlagKey{Name: "role_demand_refused"}, day(2)) {
		t.Fatal("expected no team-wide flag")
	}
}

func TestStateRoundTrip(t *testing.T) {
	tmpl := Template{
		ID:            "roster_rift",
		Severity:      SeverityMajor,
		Probability:   100,
		OncePerSeason: true,
		Choices:       []Choice{{ID: "a", Label: "A"}},
	}

	store := defaultStore()
	engine := testEngine(t, store, 1, tmpl)
	engine.Flags().Set(world.FlagKey{Name: "storm"}, day(30))

	if _, err := engine.EvaluateDay(context.Background(), store.snapshot(day(1), calendar.PhaseStage1)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	state := engine.State()

	restored := testEngine(t, store, 1, tmpl)
	restored.Restore(state)

	if len(restored.Active()) != 1 {
		t.Fatalf("expected one open instance after restore, got %d", len(restored.Active()))
	}
	if !restored.Flags().Active(world.FlagKey{Name: "storm"}, day(2)) {
		t.Fatal("expected flag to survive restore")
	}
	// Exhaustion must survive: the template cannot fire again.
	instances, err := restored.EvaluateDay(context.Background(), store.snapshot(day(40), calendar.PhaseStage1))
	if err != nil {
		t.Fatalf("evaluate restored: %v", err)
	}
	if len(instances) != 0 {
		t.Fatal("expected exhausted template not to fire after restore")
	}
}
