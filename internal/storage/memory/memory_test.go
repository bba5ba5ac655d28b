package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/world"
)

func TestEventRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	evt := calendar.Event{
		ID:       "evt1",
		Date:     day1,
		Type:     calendar.EventMatch,
		Required: true,
		Match: &calendar.MatchData{
			MatchID:    "m1",
			HomeTeamID: "team1",
			AwayTeamID: "team2",
			Phase:      calendar.PhaseStage1,
		},
	}
	if err := store.PutEvent(ctx, evt); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}
	if err := store.PutEvent(ctx, calendar.Event{ID: "evt2", Date: day2, Type: calendar.EventSalaryPayment, TeamID: "team1"}); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}

	got, err := store.GetEvent(ctx, "evt1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Match == nil || got.Match.MatchID != "m1" {
		t.Fatalf("unexpected event: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Match.Resolved = true
	again, err := store.GetEvent(ctx, "evt1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if again.Match.Resolved {
		t.Fatal("expected stored event to be isolated from returned copy")
	}

	byDate, err := store.ListEventsByDate(ctx, day1)
	if err != nil {
		t.Fatalf("ListEventsByDate: %v", err)
	}
	if len(byDate) != 1 || byDate[0].ID != "evt1" {
		t.Fatalf("unexpected day listing: %+v", byDate)
	}

	between, err := store.ListEventsBetween(ctx, day1, day1.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListEventsBetween: %v", err)
	}
	if len(between) != 2 || between[0].ID != "evt1" || between[1].ID != "evt2" {
		t.Fatalf("unexpected range listing: %+v", between)
	}

	if err := store.DeleteEvent(ctx, "evt1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := store.GetEvent(ctx, "evt1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteEvent(ctx, "evt1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestActivityConfigRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	cfg := activity.NewConfig("evt1", activity.TypeTraining, day, activity.Settings{
		Intensity:   activity.IntensityIntense,
		FocusAreas:  []string{"mechanics"},
		Assignments: map[string]string{"p1": "positioning"},
	})
	if err := store.PutActivityConfig(ctx, cfg); err != nil {
		t.Fatalf("PutActivityConfig: %v", err)
	}

	got, err := store.GetActivityConfig(ctx, "evt1")
	if err != nil {
		t.Fatalf("GetActivityConfig: %v", err)
	}
	if got.Status != activity.StateConfigured || got.Effectiveness != 85 {
		t.Fatalf("unexpected config: %+v", got)
	}
	if got.Settings.Assignments["p1"] != "positioning" {
		t.Fatalf("unexpected settings: %+v", got.Settings)
	}

	byDate, err := store.ListActivityConfigsByDate(ctx, day)
	if err != nil {
		t.Fatalf("ListActivityConfigsByDate: %v", err)
	}
	if len(byDate) != 1 {
		t.Fatalf("expected one config, got %d", len(byDate))
	}

	if err := store.DeleteActivityConfig(ctx, "evt1"); err != nil {
		t.Fatalf("DeleteActivityConfig: %v", err)
	}
	if _, err := store.GetActivityConfig(ctx, "evt1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRosterOperations(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.PutTeam(ctx, world.Team{ID: "team1", Chemistry: 50, Budget: 1000}); err != nil {
		t.Fatalf("PutTeam: %v", err)
	}
	players := []world.Player{
		{ID: "p1", Name: "Ash", Rating: 90, Morale: 60, Stats: map[string]int{"mechanics": 70}},
		{ID: "p2", Name: "Blake", Rating: 80, Morale: 70},
	}
	for _, p := range players {
		if err := store.PutPlayer(ctx, "team1", p); err != nil {
			t.Fatalf("PutPlayer: %v", err)
		}
	}

	if err := store.SetPlayerMorale(ctx, "p1", 45); err != nil {
		t.Fatalf("SetPlayerMorale: %v", err)
	}
	if err := store.SetPlayerStat(ctx, "p2", "mechanics", 55); err != nil {
		t.Fatalf("SetPlayerStat: %v", err)
	}
	if err := store.SetTeamChemistry(ctx, "team1", 62); err != nil {
		t.Fatalf("SetTeamChemistry: %v", err)
	}
	if err := store.AddTeamBudget(ctx, "team1", -250); err != nil {
		t.Fatalf("AddTeamBudget: %v", err)
	}

	p1, err := store.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p1.Morale != 45 {
		t.Fatalf("expected morale 45, got %d", p1.Morale)
	}
	p2, err := store.GetPlayer(ctx, "p2")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p2.Stats["mechanics"] != 55 {
		t.Fatalf("expected stat 55, got %d", p2.Stats["mechanics"])
	}

	team, err := store.GetTeam(ctx, "team1")
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if team.Chemistry != 62 || team.Budget != 750 {
		t.Fatalf("unexpected team: %+v", team)
	}

	roster, err := store.ListRoster(ctx, "team1")
	if err != nil {
		t.Fatalf("ListRoster: %v", err)
	}
	if len(roster) != 2 || roster[0].ID != "p1" || roster[1].ID != "p2" {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	if err := store.SetPlayerMorale(ctx, "ghost", 10); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for unknown player, got %v", err)
	}
}

func TestDramaStateRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, ok, err := store.LoadDramaState(ctx); err != nil || ok {
		t.Fatalf("expected no initial state, got ok=%v err=%v", ok, err)
	}

	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	state := drama.State{
		Active: []drama.Instance{{
			ID:            "inst1",
			TemplateID:    "rift",
			Status:        drama.StatusPending,
			TriggeredDate: day,
		}},
		Flags: world.FlagSet{
			{Name: "storm"}:                     day.AddDate(0, 0, 5),
			{Name: "benched", PlayerID: "p1"}:   day.AddDate(0, 0, 10),
		},
		Cooldowns: world.CooldownSet{"rift": day},
		Exhausted: []string{"title_hangover"},
	}
	if err := store.SaveDramaState(ctx, state); err != nil {
		t.Fatalf("SaveDramaState: %v", err)
	}

	got, ok, err := store.LoadDramaState(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadDramaState: ok=%v err=%v", ok, err)
	}
	if len(got.Active) != 1 || got.Active[0].ID != "inst1" {
		t.Fatalf("unexpected active instances: %+v", got.Active)
	}
	if !got.Flags.Active(world.FlagKey{Name: "benched", PlayerID: "p1"}, day) {
		t.Fatal("expected player-scoped flag to survive")
	}
	if len(got.Exhausted) != 1 || got.Exhausted[0] != "title_hangover" {
		t.Fatalf("unexpected exhausted set: %v", got.Exhausted)
	}
}

func TestClockRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, ok, err := store.LoadClock(ctx); err != nil || ok {
		t.Fatalf("expected no initial clock, got ok=%v err=%v", ok, err)
	}

	noon := time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC)
	if err := store.SaveClock(ctx, noon); err != nil {
		t.Fatalf("SaveClock: %v", err)
	}
	got, ok, err := store.LoadClock(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadClock: ok=%v err=%v", ok, err)
	}
	if !got.Equal(calendar.DateOf(noon)) {
		t.Fatalf("expected clock normalized to midnight, got %v", got)
	}
}
