package calendar

import "time"

// SeasonPhase is a coarse calendar segment gating feature and activity
// availability.
type SeasonPhase string

const (
	PhaseOffseason SeasonPhase = "offseason"
	PhaseKickoff   SeasonPhase = "kickoff"
	PhaseStage1    SeasonPhase = "stage1"
	PhaseStage2    SeasonPhase = "stage2"
	PhasePlayoffs  SeasonPhase = "playoffs"
)

// phaseOrder gives each phase its position in the season.
var phaseOrder = map[SeasonPhase]int{
	PhaseOffseason: 0,
	PhaseKickoff:   1,
	PhaseStage1:    2,
	PhaseStage2:    3,
	PhasePlayoffs:  4,
}

// IsValid reports whether p is a known season phase.
func (p SeasonPhase) IsValid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// AtOrAfter reports whether p occurs at or after other within a season.
func (p SeasonPhase) AtOrAfter(other SeasonPhase) bool {
	return phaseOrder[p] >= phaseOrder[other]
}

// PhaseWindow binds a phase to a date range; Start is inclusive, End exclusive.
type PhaseWindow struct {
	Phase SeasonPhase
	Start time.Time
	End   time.Time
}

// PhaseSchedule maps dates to season phases.
type PhaseSchedule []PhaseWindow

// PhaseAt returns the phase containing date. Dates outside every window fall
// back to the offseason.
func (s PhaseSchedule) PhaseAt(date time.Time) SeasonPhase {
	d := DateOf(date)
	for _, w := range s {
		if !d.Before(DateOf(w.Start)) && d.Before(DateOf(w.End)) {
			return w.Phase
		}
	}
	return PhaseOffseason
}

// SeasonStart returns the first window's start, or the zero time for an empty
// schedule.
func (s PhaseSchedule) SeasonStart() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return DateOf(s[0].Start)
}
