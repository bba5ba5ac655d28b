package drama

import (
	"sort"

	"github.com/pitchside/frontoffice/internal/world"
)

// State is a serializable snapshot of the engine's runtime narrative state,
// used by the store layer for persistence.
type State struct {
	Active    []Instance
	History   []Instance
	Flags     world.FlagSet
	Cooldowns world.CooldownSet
	Exhausted []string
}

// State exports a deep copy of the engine's runtime state.
func (e *Engine) State() State {
	s := State{
		Active:    make([]Instance, len(e.active)),
		History:   make([]Instance, len(e.history)),
		Flags:     e.flags.Clone(),
		Cooldowns: e.cooldowns.Clone(),
	}
	copy(s.Active, e.active)
	copy(s.History, e.history)
	for id := range e.exhausted {
		s.Exhausted = append(s.Exhausted, id)
	}
	sort.Strings(s.Exhausted)
	return s
}

// Restore replaces the engine's runtime state with s.
func (e *Engine) Restore(s State) {
	e.active = make([]Instance, len(s.Active))
	copy(e.active, s.Active)
	e.history = make([]Instance, len(s.History))
	copy(e.history, s.History)

	e.flags = world.FlagSet{}
	if s.Flags != nil {
		e.flags = s.Flags.Clone()
	}
	e.cooldowns = world.CooldownSet{}
	if s.Cooldowns != nil {
		e.cooldowns = s.Cooldowns.Clone()
	}
	e.exhausted = map[string]bool{}
	for _, id := range s.Exhausted {
		e.exhausted[id] = true
	}
}
