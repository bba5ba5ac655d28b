// Package activity models scheduled team activities and their lifecycle.
//
// A scheduled activity moves forward through a fixed set of states:
//
//	needs_setup -> configured -> locked -> completed
//
// with cancelled as an alternate terminal reachable only before the activity
// locks. Locked means the day has arrived and further edits are frozen; a
// player cannot retroactively change a training focus for a day already being
// resolved. The state machine here is a pure validator: callers own the state
// and apply transitions themselves after checking.
package activity

import (
	"fmt"

	"github.com/pitchside/frontoffice/internal/errors"
)

// State is the lifecycle state of a scheduled activity.
type State string

const (
	// StateNeedsSetup marks a freshly created activity awaiting configuration.
	StateNeedsSetup State = "needs_setup"
	// StateConfigured marks an activity the player has configured.
	StateConfigured State = "configured"
	// StateLocked marks an activity frozen for resolution on its day.
	StateLocked State = "locked"
	// StateCompleted marks a resolved activity.
	StateCompleted State = "completed"
	// StateCancelled marks an activity cancelled before locking.
	StateCancelled State = "cancelled"
)

// transitions is the full table of valid lifecycle moves.
var transitions = map[State][]State{
	StateNeedsSetup: {StateConfigured, StateCancelled},
	StateConfigured: {StateLocked, StateCancelled},
	StateLocked:     {StateCompleted},
	StateCompleted:  {},
	StateCancelled:  {},
}

// IsValid reports whether s is a known lifecycle state.
func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition validates a lifecycle move. It never mutates anything; on an
// invalid move it returns a descriptive error with code
// ACTIVITY_INVALID_TRANSITION.
func CanTransition(from, to State) error {
	targets, ok := transitions[from]
	if !ok {
		return errors.New(errors.CodeActivityInvalidState,
			fmt.Sprintf("unknown activity state %q", from))
	}
	if !to.IsValid() {
		return errors.New(errors.CodeActivityInvalidState,
			fmt.Sprintf("unknown activity state %q", to))
	}
	for _, target := range targets {
		if target == to {
			return nil
		}
	}
	return errors.WithMetadata(errors.CodeActivityInvalidTransition,
		fmt.Sprintf("cannot transition activity from %q to %q", from, to),
		map[string]string{"from": string(from), "to": string(to)})
}

// IsTerminal reports whether s accepts no further transitions.
func IsTerminal(s State) bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

// CanModify reports whether an activity in s may still be edited.
func CanModify(s State) bool {
	return s == StateNeedsSetup || s == StateConfigured
}

// CanCancel reports whether an activity in s may still be cancelled.
func CanCancel(s State) bool {
	return CanModify(s)
}
