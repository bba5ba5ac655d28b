package schedule

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/progression"
	"github.com/pitchside/frontoffice/internal/rules"
	"github.com/pitchside/frontoffice/internal/storage/memory"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func testPhases() calendar.PhaseSchedule {
	return calendar.PhaseSchedule{
		{Phase: calendar.PhaseKickoff, Start: day(1), End: day(8)},
		{Phase: calendar.PhaseStage1, Start: day(8), End: day(64)},
		{Phase: calendar.PhasePlayoffs, Start: day(64), End: day(85)},
	}
}

func testCoordinator(t *testing.T) (*Coordinator, *memory.Store) {
	t.Helper()
	store := memory.New()
	gate := progression.NewGate(day(1), nil)
	engine := rules.NewEngine(
		rules.MatchDayRule(),
		rules.FeatureGateRule(gate),
		rules.SeasonPhaseRule(nil),
	)
	n := 0
	coord := NewCoordinator(store, store, engine, testPhases(), "team1", WithIDGenerator(func() (string, error) {
		n++
		return fmt.Sprintf("evt%03d", n), nil
	}))
	return coord, store
}

func putMatch(t *testing.T, store *memory.Store, id string, date time.Time, resolved bool, eventType calendar.EventType) {
	t.Helper()
	err := store.PutEvent(context.Background(), calendar.Event{
		ID:       id,
		Date:     date,
		Type:     eventType,
		Required: true,
		Match: &calendar.MatchData{
			MatchID:    "m-" + id,
			HomeTeamID: "team1",
			AwayTeamID: "team2",
			Phase:      calendar.PhaseStage1,
			Resolved:   resolved,
		},
	})
	if err != nil {
		t.Fatalf("put match event: %v", err)
	}
}

func TestDayScheduleMatchDay(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "match1", day(8), false, calendar.EventMatch)

	sched, err := coord.DaySchedule(context.Background(), day(8))
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}

	if !sched.IsMatchDay {
		t.Fatal("expected match day")
	}
	for _, at := range sched.AvailableActivityTypes {
		if at == activity.TypeTraining || at == activity.TypeScrim {
			t.Fatalf("expected %s blocked on match day", at)
		}
	}
	found := false
	for _, b := range sched.Blockers {
		if b.Reason == rules.MatchDayReason {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected match day blocker, got %+v", sched.Blockers)
	}
	if len(sched.FixedEvents) != 1 || len(sched.ScheduledActivities) != 0 {
		t.Fatalf("unexpected partition: fixed=%d activities=%d", len(sched.FixedEvents), len(sched.ScheduledActivities))
	}
}

func TestDaySchedulePlaceholderMatchDay(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "ph1", day(70), false, calendar.EventPlaceholderMatch)

	sched, err := coord.DaySchedule(context.Background(), day(70))
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if sched.IsMatchDay || !sched.IsPlaceholderMatchDay {
		t.Fatalf("expected placeholder match day, got match=%v placeholder=%v", sched.IsMatchDay, sched.IsPlaceholderMatchDay)
	}
	// Unresolved placeholders do not block; the playoffs whitelist still
	// removes scrims.
	if allowed, _ := sched.Allows(activity.TypeTraining); !allowed {
		t.Fatal("expected training available on unresolved placeholder day")
	}
	if allowed, _ := sched.Allows(activity.TypeScrim); allowed {
		t.Fatal("expected scrims blocked during playoffs")
	}
}

func TestDayScheduleIdempotent(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "match1", day(8), false, calendar.EventMatch)

	first, err := coord.DaySchedule(context.Background(), day(8))
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	second, err := coord.DaySchedule(context.Background(), day(8))
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical schedules, got\n%+v\n%+v", first, second)
	}
}

func TestScheduleActivityCreatesEvent(t *testing.T) {
	coord, store := testCoordinator(t)

	evt, err := coord.ScheduleActivity(context.Background(), day(10), activity.TypeTraining)
	if err != nil {
		t.Fatalf("ScheduleActivity: %v", err)
	}
	if evt.Type != calendar.EventScheduledTraining || evt.Lifecycle != activity.StateNeedsSetup {
		t.Fatalf("unexpected event: %+v", evt)
	}

	stored, err := store.GetEvent(context.Background(), evt.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if !stored.Date.Equal(day(10)) {
		t.Fatalf("unexpected stored date: %v", stored.Date)
	}

	sched, err := coord.DaySchedule(context.Background(), day(10))
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if len(sched.ScheduledActivities) != 1 {
		t.Fatalf("expected activity in day view, got %+v", sched.ScheduledActivities)
	}
}

func TestScheduleActivityBlocked(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "match1", day(8), false, calendar.EventMatch)

	_, err := coord.ScheduleActivity(context.Background(), day(8), activity.TypeScrim)
	if !errors.IsCode(err, errors.CodeScheduleActivityBlocked) {
		t.Fatalf("expected blocked error, got %v", err)
	}
	appErr, ok := err.(*errors.Error)
	if !ok || appErr.Metadata["rule_id"] != "match_day" {
		t.Fatalf("expected match_day rule in metadata, got %v", err)
	}

	events, err := store.ListEventsByDate(context.Background(), day(8))
	if err != nil {
		t.Fatalf("ListEventsByDate: %v", err)
	}
	if len(events) != 1 {
		t.Fatal("expected no event created on rejection")
	}
}

func TestScheduleActivityUnknownType(t *testing.T) {
	coord, _ := testCoordinator(t)
	_, err := coord.ScheduleActivity(context.Background(), day(10), activity.Type("vacation"))
	if !errors.IsCode(err, errors.CodeScheduleUnknownActivity) {
		t.Fatalf("expected unknown activity error, got %v", err)
	}
}

func TestConfigureActivity(t *testing.T) {
	coord, store := testCoordinator(t)
	ctx := context.Background()

	evt, err := coord.ScheduleActivity(ctx, day(10), activity.TypeTraining)
	if err != nil {
		t.Fatalf("ScheduleActivity: %v", err)
	}

	cfg, err := coord.ConfigureActivity(ctx, evt.ID, activity.Settings{Intensity: activity.IntensityIntense})
	if err != nil {
		t.Fatalf("ConfigureActivity: %v", err)
	}
	if cfg.Status != activity.StateConfigured || cfg.Effectiveness != 85 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	updated, err := store.GetEvent(ctx, evt.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if updated.Lifecycle != activity.StateConfigured {
		t.Fatalf("expected configured lifecycle, got %s", updated.Lifecycle)
	}

	// Reconfiguring before lock is allowed.
	cfg, err = coord.ConfigureActivity(ctx, evt.ID, activity.Settings{Intensity: activity.IntensityLight})
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if cfg.Effectiveness != 50 {
		t.Fatalf("expected reconfigured effectiveness, got %d", cfg.Effectiveness)
	}

	// Locked activities are frozen.
	updated.Lifecycle = activity.StateLocked
	if err := store.PutEvent(ctx, updated); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}
	if _, err := coord.ConfigureActivity(ctx, evt.ID, activity.Settings{}); !errors.IsCode(err, errors.CodeScheduleEventImmutable) {
		t.Fatalf("expected immutable error, got %v", err)
	}
}

func TestConfigureActivityRejectsNonActivity(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "match1", day(8), false, calendar.EventMatch)

	_, err := coord.ConfigureActivity(context.Background(), "match1", activity.Settings{})
	if !errors.IsCode(err, errors.CodeScheduleNotActivityEvent) {
		t.Fatalf("expected not-activity error, got %v", err)
	}
}

func TestUnscheduleActivity(t *testing.T) {
	coord, store := testCoordinator(t)
	ctx := context.Background()

	evt, err := coord.ScheduleActivity(ctx, day(10), activity.TypeScrim)
	if err != nil {
		t.Fatalf("ScheduleActivity: %v", err)
	}
	if _, err := coord.ConfigureActivity(ctx, evt.ID, activity.Settings{PartnerTeamID: "team2"}); err != nil {
		t.Fatalf("ConfigureActivity: %v", err)
	}

	if err := coord.UnscheduleActivity(ctx, evt.ID); err != nil {
		t.Fatalf("UnscheduleActivity: %v", err)
	}
	if _, err := store.GetEvent(ctx, evt.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected event deleted, got %v", err)
	}
	if _, err := store.GetActivityConfig(ctx, evt.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected config deleted, got %v", err)
	}
}

func TestUnscheduleActivityRejections(t *testing.T) {
	coord, store := testCoordinator(t)
	ctx := context.Background()

	putMatch(t, store, "match1", day(8), false, calendar.EventMatch)
	if err := coord.UnscheduleActivity(ctx, "match1"); !errors.IsCode(err, errors.CodeScheduleNotActivityEvent) {
		t.Fatalf("expected not-activity error, got %v", err)
	}

	evt, err := coord.ScheduleActivity(ctx, day(10), activity.TypeTraining)
	if err != nil {
		t.Fatalf("ScheduleActivity: %v", err)
	}
	evt.Lifecycle = activity.StateLocked
	if err := store.PutEvent(ctx, evt); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}
	if err := coord.UnscheduleActivity(ctx, evt.ID); !errors.IsCode(err, errors.CodeScheduleEventImmutable) {
		t.Fatalf("expected immutable error, got %v", err)
	}
}

func TestWeekSchedule(t *testing.T) {
	coord, store := testCoordinator(t)
	putMatch(t, store, "match1", day(10), false, calendar.EventMatch)

	week, err := coord.WeekSchedule(context.Background(), day(8))
	if err != nil {
		t.Fatalf("WeekSchedule: %v", err)
	}
	if len(week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week))
	}
	for i, sched := range week {
		if !sched.Date.Equal(day(8 + i)) {
			t.Fatalf("day %d has date %v", i, sched.Date)
		}
	}
	if !week[2].IsMatchDay {
		t.Fatal("expected match day inside the week view")
	}
}
