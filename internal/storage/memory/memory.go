// Package memory provides an in-memory storage.Store used by tests and
// ephemeral simulation runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/world"
)

// Store is a mutex-guarded in-memory implementation of storage.Store.
type Store struct {
	mu sync.RWMutex

	events  map[string]calendar.Event
	configs map[string]activity.Config

	players    map[string]world.Player
	playerTeam map[string]string
	teams      map[string]world.Team

	dramaState *drama.State
	clock      *time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		events:     map[string]calendar.Event{},
		configs:    map[string]activity.Config{},
		players:    map[string]world.Player{},
		playerTeam: map[string]string{},
		teams:      map[string]world.Team{},
	}
}

// Close implements storage.Store. It is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func (s *Store) PutEvent(_ context.Context, evt calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[evt.ID] = copyEvent(evt)
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evt, ok := s.events[id]
	if !ok {
		return calendar.Event{}, storage.ErrNotFound
	}
	return copyEvent(evt), nil
}

func (s *Store) ListEventsByDate(_ context.Context, date time.Time) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []calendar.Event
	for _, evt := range s.events {
		if calendar.SameDay(evt.Date, date) {
			out = append(out, copyEvent(evt))
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) ListEventsBetween(_ context.Context, from, to time.Time) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fromDay := calendar.DateOf(from)
	toDay := calendar.DateOf(to)
	var out []calendar.Event
	for _, evt := range s.events {
		day := calendar.DateOf(evt.Date)
		if !day.Before(fromDay) && day.Before(toDay) {
			out = append(out, copyEvent(evt))
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) PutActivityConfig(_ context.Context, cfg activity.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.EventID] = copyConfig(cfg)
	return nil
}

func (s *Store) GetActivityConfig(_ context.Context, eventID string) (activity.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[eventID]
	if !ok {
		return activity.Config{}, storage.ErrNotFound
	}
	return copyConfig(cfg), nil
}

func (s *Store) ListActivityConfigsByDate(_ context.Context, date time.Time) ([]activity.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []activity.Config
	for _, cfg := range s.configs {
		if calendar.SameDay(cfg.Date, date) {
			out = append(out, copyConfig(cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (s *Store) DeleteActivityConfig(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[eventID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.configs, eventID)
	return nil
}

func (s *Store) PutPlayer(_ context.Context, teamID string, p world.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = copyPlayer(p)
	s.playerTeam[p.ID] = teamID
	return nil
}

func (s *Store) PutTeam(_ context.Context, t world.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
	return nil
}

func (s *Store) GetPlayer(_ context.Context, playerID string) (world.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return world.Player{}, storage.ErrNotFound
	}
	return copyPlayer(p), nil
}

func (s *Store) SetPlayerMorale(_ context.Context, playerID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return storage.ErrNotFound
	}
	p.Morale = value
	s.players[playerID] = p
	return nil
}

func (s *Store) SetPlayerStat(_ context.Context, playerID, stat string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return storage.ErrNotFound
	}
	stats := make(map[string]int, len(p.Stats)+1)
	for k, v := range p.Stats {
		stats[k] = v
	}
	stats[stat] = value
	p.Stats = stats
	s.players[playerID] = p
	return nil
}

func (s *Store) GetTeam(_ context.Context, teamID string) (world.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamID]
	if !ok {
		return world.Team{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) SetTeamChemistry(_ context.Context, teamID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return storage.ErrNotFound
	}
	t.Chemistry = value
	s.teams[teamID] = t
	return nil
}

func (s *Store) AddTeamBudget(_ context.Context, teamID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return storage.ErrNotFound
	}
	t.Budget += delta
	s.teams[teamID] = t
	return nil
}

func (s *Store) ListRoster(_ context.Context, teamID string) ([]world.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []world.Player
	for id, p := range s.players {
		if s.playerTeam[id] == teamID {
			out = append(out, copyPlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveDramaState(_ context.Context, state drama.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := copyDramaState(state)
	s.dramaState = &copied
	return nil
}

func (s *Store) LoadDramaState(_ context.Context) (drama.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dramaState == nil {
		return drama.State{}, false, nil
	}
	return copyDramaState(*s.dramaState), true, nil
}

func (s *Store) SaveClock(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := calendar.DateOf(date)
	s.clock = &day
	return nil
}

func (s *Store) LoadClock(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clock == nil {
		return time.Time{}, false, nil
	}
	return *s.clock, true, nil
}

func sortEvents(events []calendar.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}

func copyEvent(evt calendar.Event) calendar.Event {
	if evt.Match != nil {
		match := *evt.Match
		evt.Match = &match
	}
	return evt
}

func copyConfig(cfg activity.Config) activity.Config {
	if cfg.Settings.FocusAreas != nil {
		areas := make([]string, len(cfg.Settings.FocusAreas))
		copy(areas, cfg.Settings.FocusAreas)
		cfg.Settings.FocusAreas = areas
	}
	if cfg.Settings.Assignments != nil {
		assignments := make(map[string]string, len(cfg.Settings.Assignments))
		for k, v := range cfg.Settings.Assignments {
			assignments[k] = v
		}
		cfg.Settings.Assignments = assignments
	}
	return cfg
}

func copyPlayer(p world.Player) world.Player {
	if p.Stats != nil {
		stats := make(map[string]int, len(p.Stats))
		for k, v := range p.Stats {
			stats[k] = v
		}
		p.Stats = stats
	}
	if p.Personality != nil {
		traits := make([]string, len(p.Personality))
		copy(traits, p.Personality)
		p.Personality = traits
	}
	return p
}

func copyDramaState(state drama.State) drama.State {
	out := drama.State{
		Active:  make([]drama.Instance, len(state.Active)),
		History: make([]drama.Instance, len(state.History)),
	}
	copy(out.Active, state.Active)
	copy(out.History, state.History)
	if state.Flags != nil {
		out.Flags = state.Flags.Clone()
	}
	if state.Cooldowns != nil {
		out.Cooldowns = state.Cooldowns.Clone()
	}
	if state.Exhausted != nil {
		out.Exhausted = make([]string, len(state.Exhausted))
		copy(out.Exhausted, state.Exhausted)
	}
	return out
}
