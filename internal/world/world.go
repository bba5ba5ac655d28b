// Package world models the mutable game world the narrative systems read and
// write: roster members, team aggregates, time-bounded flags, and template
// cooldowns.
//
// Rule and condition evaluation never touches live state directly; callers
// build a Snapshot first and evaluate against that, which keeps the engines
// pure and reproducible.
package world

import (
	"sort"
	"strings"
	"time"

	"github.com/pitchside/frontoffice/internal/calendar"
)

// ClampPercent bounds v to the 0-100 range used by morale, chemistry, and
// player stats. Clamping happens at write time so stored state is always
// valid.
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FlagKey identifies a flag in the parameterized key space. PlayerID is empty
// for team-wide flags; each (name, player) instantiation is a distinct key.
type FlagKey struct {
	Name     string
	PlayerID string
}

// flagKeySep separates name from player id in the textual key form. Flag
// names are authored snake_case identifiers and never contain it.
const flagKeySep = "::"

// MarshalText encodes the key as "name" or "name::playerID" so FlagSet can
// serve as a JSON map.
func (k FlagKey) MarshalText() ([]byte, error) {
	if k.PlayerID == "" {
		return []byte(k.Name), nil
	}
	return []byte(k.Name + flagKeySep + k.PlayerID), nil
}

// UnmarshalText reverses MarshalText.
func (k *FlagKey) UnmarshalText(text []byte) error {
	name, playerID, _ := strings.Cut(string(text), flagKeySep)
	k.Name = name
	k.PlayerID = playerID
	return nil
}

// FlagSet maps flags to their expiry dates. A flag is active strictly before
// its expiry; expired entries read as absent and are only removed by an
// explicit sweep.
type FlagSet map[FlagKey]time.Time

// Active reports whether key is set and unexpired at date.
func (f FlagSet) Active(key FlagKey, date time.Time) bool {
	expiry, ok := f[key]
	if !ok {
		return false
	}
	return calendar.DateOf(date).Before(calendar.DateOf(expiry))
}

// Set records key with the given expiry date.
func (f FlagSet) Set(key FlagKey, expiry time.Time) {
	f[key] = calendar.DateOf(expiry)
}

// Clear removes key. Clearing is always an explicit effect, never a side
// effect of time passing.
func (f FlagSet) Clear(key FlagKey) {
	delete(f, key)
}

// Sweep drops entries expired at date and returns how many were removed.
func (f FlagSet) Sweep(date time.Time) int {
	removed := 0
	for key, expiry := range f {
		if !calendar.DateOf(date).Before(expiry) {
			delete(f, key)
			removed++
		}
	}
	return removed
}

// Clone returns an independent copy of the set.
func (f FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(f))
	for key, expiry := range f {
		out[key] = expiry
	}
	return out
}

// CooldownSet maps template ids to their last firing date.
type CooldownSet map[string]time.Time

// OnCooldown reports whether templateID fired within cooldownDays before date.
func (c CooldownSet) OnCooldown(templateID string, date time.Time, cooldownDays int) bool {
	if cooldownDays <= 0 {
		return false
	}
	last, ok := c[templateID]
	if !ok {
		return false
	}
	return calendar.DaysBetween(last, date) < cooldownDays
}

// Record notes that templateID fired on date.
func (c CooldownSet) Record(templateID string, date time.Time) {
	c[templateID] = calendar.DateOf(date)
}

// Clone returns an independent copy of the set.
func (c CooldownSet) Clone() CooldownSet {
	out := make(CooldownSet, len(c))
	for id, last := range c {
		out[id] = last
	}
	return out
}

// Player is one roster member.
type Player struct {
	ID          string
	Name        string
	Role        string
	Rating      int
	Morale      int
	Stats       map[string]int
	Personality []string
	ContractEnd time.Time
}

// HasTrait reports whether the player's personality includes trait.
func (p Player) HasTrait(trait string) bool {
	for _, t := range p.Personality {
		if t == trait {
			return true
		}
	}
	return false
}

// Team aggregates the player team's shared state.
type Team struct {
	ID              string
	Name            string
	Chemistry       int
	Budget          int64
	WinStreak       int
	LossStreak      int
	BracketPosition int
}

// Snapshot is the read-only world view evaluation runs against. It is built
// once per pass; flags are not re-polled mid-pass.
type Snapshot struct {
	Date      time.Time
	Phase     calendar.SeasonPhase
	Team      Team
	Roster    []Player
	Flags     FlagSet
	Cooldowns CooldownSet
}

// Player returns the roster member with the given id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Roster {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// StarPlayer returns the roster's highest-rated member; ties break by id so
// selection stays deterministic.
func (s Snapshot) StarPlayer() (Player, bool) {
	if len(s.Roster) == 0 {
		return Player{}, false
	}
	sorted := make([]Player, len(s.Roster))
	copy(sorted, s.Roster)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0], true
}
