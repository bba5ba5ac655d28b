// Package schedule ties the availability rules to the calendar: it answers
// what a day looks like, creates player-scheduled activities, and owns their
// pre-lock mutations.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/errors"
	"github.com/pitchside/frontoffice/internal/platform/id"
	"github.com/pitchside/frontoffice/internal/rules"
	"github.com/pitchside/frontoffice/internal/storage"
)

// DaySchedule is the read view of one calendar day.
type DaySchedule struct {
	Date  time.Time
	Phase calendar.SeasonPhase

	FixedEvents         []calendar.Event
	ScheduledActivities []calendar.Event

	AvailableActivityTypes []activity.Type
	Blockers               []rules.Blocker

	IsMatchDay            bool
	IsPlaceholderMatchDay bool
}

// Coordinator exposes schedule queries and mutations over the event store.
type Coordinator struct {
	events       storage.EventStore
	configs      storage.ActivityStore
	engine       *rules.Engine
	phases       calendar.PhaseSchedule
	playerTeamID string
	idGen        func() (string, error)
	tracer       trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithIDGenerator overrides event id generation, mainly for tests.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(c *Coordinator) { c.idGen = gen }
}

// NewCoordinator creates a coordinator for the player's team.
func NewCoordinator(events storage.EventStore, configs storage.ActivityStore, engine *rules.Engine, phases calendar.PhaseSchedule, playerTeamID string, opts ...Option) *Coordinator {
	c := &Coordinator{
		events:       events,
		configs:      configs,
		engine:       engine,
		phases:       phases,
		playerTeamID: playerTeamID,
		idGen:        id.NewID,
		tracer:       otel.Tracer("frontoffice/schedule"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DaySchedule builds the schedule view for date. The query is idempotent for
// unchanged store state.
func (c *Coordinator) DaySchedule(ctx context.Context, date time.Time) (DaySchedule, error) {
	day := calendar.DateOf(date)
	events, err := c.events.ListEventsByDate(ctx, day)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list events for %s: %w", day.Format("2006-01-02"), err)
	}

	dayCtx := rules.DayContext{
		Date:         day,
		Phase:        c.phases.PhaseAt(day),
		Events:       events,
		PlayerTeamID: c.playerTeamID,
	}
	avail := c.engine.EvaluateDay(dayCtx)

	sched := DaySchedule{
		Date:                   day,
		Phase:                  dayCtx.Phase,
		AvailableActivityTypes: avail.Available,
		Blockers:               avail.Blockers,
	}
	for _, evt := range events {
		if evt.Type.IsActivity() {
			sched.ScheduledActivities = append(sched.ScheduledActivities, evt)
			continue
		}
		sched.FixedEvents = append(sched.FixedEvents, evt)

		if evt.Match == nil || !evt.Match.Involves(c.playerTeamID) {
			continue
		}
		switch evt.Type {
		case calendar.EventMatch:
			sched.IsMatchDay = true
		case calendar.EventPlaceholderMatch:
			if evt.Match.Resolved {
				sched.IsMatchDay = true
			} else {
				sched.IsPlaceholderMatchDay = true
			}
		}
	}
	return sched, nil
}

// WeekSchedule folds DaySchedule over the 7 days starting at start.
func (c *Coordinator) WeekSchedule(ctx context.Context, start time.Time) ([]DaySchedule, error) {
	day := calendar.DateOf(start)
	out := make([]DaySchedule, 0, 7)
	for i := 0; i < 7; i++ {
		sched, err := c.DaySchedule(ctx, day.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, nil
}

// ScheduleActivity creates a needs_setup activity event on date. Blocked
// types are rejected with the blocking rule's reason; nothing is mutated on
// rejection.
func (c *Coordinator) ScheduleActivity(ctx context.Context, date time.Time, activityType activity.Type) (calendar.Event, error) {
	ctx, span := c.tracer.Start(ctx, "schedule.schedule_activity",
		trace.WithAttributes(attribute.String("activity.type", string(activityType))))
	defer span.End()

	if !activityType.IsValid() {
		return calendar.Event{}, errors.New(errors.CodeScheduleUnknownActivity,
			fmt.Sprintf("unknown activity type %q", activityType))
	}

	sched, err := c.DaySchedule(ctx, date)
	if err != nil {
		return calendar.Event{}, err
	}
	allowed, blocker := sched.Allows(activityType)
	if !allowed {
		reason := fmt.Sprintf("activity type %q is not available on %s", activityType, sched.Date.Format("2006-01-02"))
		metadata := map[string]string{"activity_type": string(activityType)}
		if blocker != nil {
			reason = blocker.Reason
			metadata["rule_id"] = blocker.RuleID
		}
		return calendar.Event{}, errors.WithMetadata(errors.CodeScheduleActivityBlocked, reason, metadata)
	}

	eventID, err := c.idGen()
	if err != nil {
		return calendar.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	evt, ok := calendar.NewActivityEvent(eventID, sched.Date, activityType)
	if !ok {
		return calendar.Event{}, errors.New(errors.CodeScheduleUnknownActivity,
			fmt.Sprintf("activity type %q has no calendar event type", activityType))
	}
	if err := c.events.PutEvent(ctx, evt); err != nil {
		return calendar.Event{}, fmt.Errorf("store activity event: %w", err)
	}
	return evt, nil
}

// ConfigureActivity applies player settings to a scheduled activity and moves
// it to configured. Reconfiguring an already configured activity is allowed
// until its day locks it.
func (c *Coordinator) ConfigureActivity(ctx context.Context, eventID string, settings activity.Settings) (activity.Config, error) {
	evt, err := c.events.GetEvent(ctx, eventID)
	if err != nil {
		return activity.Config{}, err
	}
	activityType, ok := evt.Type.ActivityType()
	if !ok {
		return activity.Config{}, errors.WithMetadata(errors.CodeScheduleNotActivityEvent,
			fmt.Sprintf("event %q is not a configurable activity", eventID),
			map[string]string{"event_type": string(evt.Type)})
	}
	if !activity.CanModify(evt.Lifecycle) {
		return activity.Config{}, errors.WithMetadata(errors.CodeScheduleEventImmutable,
			fmt.Sprintf("activity %q is %s and can no longer be configured", eventID, evt.Lifecycle),
			map[string]string{"lifecycle": string(evt.Lifecycle)})
	}

	if evt.Lifecycle == activity.StateNeedsSetup {
		if err := activity.CanTransition(evt.Lifecycle, activity.StateConfigured); err != nil {
			return activity.Config{}, err
		}
	}

	cfg := activity.NewConfig(eventID, activityType, evt.Date, settings)
	if err := c.configs.PutActivityConfig(ctx, cfg); err != nil {
		return activity.Config{}, fmt.Errorf("store activity config: %w", err)
	}
	evt.Lifecycle = activity.StateConfigured
	if err := c.events.PutEvent(ctx, evt); err != nil {
		return activity.Config{}, fmt.Errorf("store activity event: %w", err)
	}
	return cfg, nil
}

// UnscheduleActivity cancels an activity event before it locks, removing the
// event and any configuration.
func (c *Coordinator) UnscheduleActivity(ctx context.Context, eventID string) error {
	evt, err := c.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !evt.Type.IsActivity() {
		return errors.WithMetadata(errors.CodeScheduleNotActivityEvent,
			fmt.Sprintf("event %q is not an activity", eventID),
			map[string]string{"event_type": string(evt.Type)})
	}
	if !activity.CanCancel(evt.Lifecycle) {
		return errors.WithMetadata(errors.CodeScheduleEventImmutable,
			fmt.Sprintf("activity %q is %s and can no longer be cancelled", eventID, evt.Lifecycle),
			map[string]string{"lifecycle": string(evt.Lifecycle)})
	}

	if err := c.events.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete activity event: %w", err)
	}
	if err := c.configs.DeleteActivityConfig(ctx, eventID); err != nil && !errors.IsCode(err, errors.CodeNotFound) {
		return fmt.Errorf("delete activity config: %w", err)
	}
	return nil
}

// Allows reports whether activityType is schedulable per this day view.
func (s DaySchedule) Allows(activityType activity.Type) (bool, *rules.Blocker) {
	avail := rules.Availability{Available: s.AvailableActivityTypes, Blockers: s.Blockers}
	return avail.Allows(activityType)
}
