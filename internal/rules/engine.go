// Package rules decides which activity types may be scheduled on a given day.
//
// The engine is a pure reduction over prioritized rules: every rule sees the
// same day context and contributes blocked types independently; rules never
// see each other's output. This keeps each rule trivially testable on its
// own.
package rules

import (
	"sort"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
)

// DayContext is the ephemeral value object rules evaluate against. It is
// constructed fresh per query and never persisted.
type DayContext struct {
	Date         time.Time
	Phase        calendar.SeasonPhase
	Events       []calendar.Event
	PlayerTeamID string
}

// Verdict is the outcome kind of one rule evaluation.
type Verdict int

const (
	// VerdictSkip means the rule had nothing to say for this day.
	VerdictSkip Verdict = iota
	// VerdictAllow is an explicit no-op; kept distinct from skip for rule
	// authors that want to record a positive decision.
	VerdictAllow
	// VerdictBlock removes activity types from the day.
	VerdictBlock
)

// Result is what a rule returns for a day.
type Result struct {
	Verdict      Verdict
	BlockedTypes []activity.Type
	Reason       string
}

// Skip returns a no-op result.
func Skip() Result { return Result{Verdict: VerdictSkip} }

// Allow returns an explicit allow result.
func Allow() Result { return Result{Verdict: VerdictAllow} }

// Block returns a blocking result for the given types.
func Block(reason string, types ...activity.Type) Result {
	return Result{Verdict: VerdictBlock, BlockedTypes: types, Reason: reason}
}

// Rule is one scheduling rule. Evaluate must be a pure function of the
// context; rules carry no hidden state.
type Rule struct {
	ID       string
	Name     string
	Priority int
	Evaluate func(DayContext) Result
}

// Blocker explains why activity types are unavailable on a day.
type Blocker struct {
	RuleID       string
	Reason       string
	BlockedTypes []activity.Type
	Severity     string
}

// SeverityHard marks a blocker the player cannot override.
const SeverityHard = "hard"

// Availability is the engine's answer for one day.
type Availability struct {
	Available []activity.Type
	Blockers  []Blocker
}

// SchedulableTypes is the full enum of activity types the engine reduces
// from.
func SchedulableTypes() []activity.Type {
	return []activity.Type{activity.TypeTraining, activity.TypeScrim}
}

// Engine holds the registered rules in evaluation order.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the given rules already registered.
func NewEngine(rules ...Rule) *Engine {
	e := &Engine{}
	for _, r := range rules {
		e.Register(r)
	}
	return e
}

// Register inserts rule and re-sorts by descending priority. The sort is
// stable, so equal priorities keep registration order.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority > e.rules[j].Priority
	})
}

// EvaluateDay runs every rule against ctx and reduces the results. With no
// rules registered everything is available.
func (e *Engine) EvaluateDay(ctx DayContext) Availability {
	blocked := map[activity.Type]bool{}
	var blockers []Blocker

	for _, rule := range e.rules {
		if rule.Evaluate == nil {
			continue
		}
		result := rule.Evaluate(ctx)
		if result.Verdict != VerdictBlock || len(result.BlockedTypes) == 0 {
			continue
		}
		for _, t := range result.BlockedTypes {
			blocked[t] = true
		}
		blockers = append(blockers, Blocker{
			RuleID:       rule.ID,
			Reason:       result.Reason,
			BlockedTypes: result.BlockedTypes,
			Severity:     SeverityHard,
		})
	}

	var available []activity.Type
	for _, t := range SchedulableTypes() {
		if !blocked[t] {
			available = append(available, t)
		}
	}
	return Availability{Available: available, Blockers: blockers}
}

// Allows reports whether activityType survives the reduction, along with the
// first blocker naming it when it does not.
func (a Availability) Allows(activityType activity.Type) (bool, *Blocker) {
	for _, t := range a.Available {
		if t == activityType {
			return true, nil
		}
	}
	for i, b := range a.Blockers {
		for _, t := range b.BlockedTypes {
			if t == activityType {
				return false, &a.Blockers[i]
			}
		}
	}
	return false, nil
}
