// Package frontoffice parses driver flags and runs the headless season loop.
package frontoffice

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/pitchside/frontoffice/internal/activity"
	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/content"
	"github.com/pitchside/frontoffice/internal/day"
	"github.com/pitchside/frontoffice/internal/drama"
	"github.com/pitchside/frontoffice/internal/errors"
	entrypoint "github.com/pitchside/frontoffice/internal/platform/cmd"
	"github.com/pitchside/frontoffice/internal/platform/id"
	"github.com/pitchside/frontoffice/internal/progression"
	"github.com/pitchside/frontoffice/internal/random"
	"github.com/pitchside/frontoffice/internal/rules"
	"github.com/pitchside/frontoffice/internal/schedule"
	"github.com/pitchside/frontoffice/internal/storage"
	"github.com/pitchside/frontoffice/internal/storage/memory"
	"github.com/pitchside/frontoffice/internal/storage/sqlite"
	"github.com/pitchside/frontoffice/internal/world"
)

// Config holds driver configuration.
type Config struct {
	DBPath       string `env:"FRONTOFFICE_DB_PATH"`
	ContentDir   string `env:"FRONTOFFICE_CONTENT_DIR"`
	Watch        bool   `env:"FRONTOFFICE_CONTENT_WATCH"`
	Days         int    `env:"FRONTOFFICE_DAYS" envDefault:"28"`
	Seed         int64  `env:"FRONTOFFICE_SEED"`
	AutosaveDays int    `env:"FRONTOFFICE_AUTOSAVE_DAYS" envDefault:"7"`
	TeamID       string `env:"FRONTOFFICE_TEAM_ID" envDefault:"team-ember"`
	SeasonStart  string `env:"FRONTOFFICE_SEASON_START" envDefault:"2026-08-01"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty runs in memory)")
	fs.StringVar(&cfg.ContentDir, "content", cfg.ContentDir, "Drama catalog directory (empty uses the embedded catalog)")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Hot-reload the catalog directory on change")
	fs.IntVar(&cfg.Days, "days", cfg.Days, "Number of days to simulate")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Deterministic seed (0 draws a crypto seed)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run simulates cfg.Days days of the season, resuming from a saved clock when
// the store carries one.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSim, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	catalog, err := loadCatalog(cfg.ContentDir)
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", cfg.SeasonStart)
	if err != nil {
		return fmt.Errorf("parse season start %q: %w", cfg.SeasonStart, err)
	}
	season := calendar.SeasonConfig{
		Start:   start,
		TeamIDs: leagueTeams(cfg.TeamID),
	}

	_, resuming, err := store.LoadClock(ctx)
	if err != nil {
		return fmt.Errorf("load clock: %w", err)
	}
	if !resuming {
		if err := seedSeason(ctx, store, season, cfg.TeamID); err != nil {
			return err
		}
	}

	gate := progression.NewGate(start, nil)
	coord := schedule.NewCoordinator(store, store, rules.NewEngine(
		rules.MatchDayRule(),
		rules.FeatureGateRule(gate),
		rules.SeasonPhaseRule(nil),
	), season.Phases(), cfg.TeamID)

	orch := day.NewOrchestrator(day.Deps{
		Store:        store,
		Drama:        drama.NewEngine(catalog, store, seed),
		Gate:         gate,
		Phases:       season.Phases(),
		Matches:      &leagueSim{store: store, seed: seed, playerTeamID: cfg.TeamID},
		Finance:      &payroll{store: store},
		Tournaments:  &stageStarter{},
		Activities:   &activityApplier{store: store, teamID: cfg.TeamID},
		PlayerTeamID: cfg.TeamID,
	}, start, day.WithAutosaveInterval(cfg.AutosaveDays))
	if err := orch.Restore(ctx); err != nil {
		return err
	}

	if cfg.Watch && cfg.ContentDir != "" {
		watcher, err := content.NewWatcher(cfg.ContentDir, orch.SwapDramaCatalog)
		if err != nil {
			return err
		}
		go watcher.Run(ctx)
	}

	log.Printf("simulating %d days from %s (seed %d)", cfg.Days, orch.CurrentDate().Format("2006-01-02"), seed)
	for i := 0; i < cfg.Days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := planTomorrow(ctx, coord, orch.CurrentDate(), i); err != nil {
			return err
		}
		result, err := orch.AdvanceDay(ctx)
		if err != nil {
			return fmt.Errorf("advance day: %w", err)
		}
		report(result)
	}
	return nil
}

// planTomorrow books a practice block for the next day when the rules allow
// one. Blocked days are expected (match days, locked features) and skipped.
func planTomorrow(ctx context.Context, coord *schedule.Coordinator, today time.Time, dayIndex int) error {
	activityType := activity.TypeTraining
	settings := activity.Settings{Intensity: activity.IntensityNormal, FocusAreas: []string{"mechanics"}}
	if dayIndex%3 == 2 {
		activityType = activity.TypeScrim
		settings = activity.Settings{Intensity: activity.IntensityIntense, PartnerTeamID: "team-aurora"}
	}

	evt, err := coord.ScheduleActivity(ctx, calendar.NextDay(today), activityType)
	if err != nil {
		if errors.IsCode(err, errors.CodeScheduleActivityBlocked) {
			return nil
		}
		return err
	}
	if _, err := coord.ConfigureActivity(ctx, evt.ID, settings); err != nil {
		return err
	}
	return nil
}

func openStore(path string) (storage.Store, error) {
	if path == "" {
		return memory.New(), nil
	}
	return sqlite.Open(path)
}

func loadCatalog(dir string) (*drama.Catalog, error) {
	if dir == "" {
		return content.DefaultCatalog()
	}
	return content.LoadDir(dir)
}

func leagueTeams(playerTeamID string) []string {
	return []string{playerTeamID, "team-aurora", "team-citadel", "team-voltage"}
}

// seedSeason writes the fixture list and a starting league into an empty
// store.
func seedSeason(ctx context.Context, store storage.Store, season calendar.SeasonConfig, playerTeamID string) error {
	events, err := calendar.GenerateSeason(season, id.NewID)
	if err != nil {
		return fmt.Errorf("generate season: %w", err)
	}
	for _, evt := range events {
		if err := store.PutEvent(ctx, evt); err != nil {
			return fmt.Errorf("store event %s: %w", evt.ID, err)
		}
	}

	for _, teamID := range season.TeamIDs {
		if err := store.PutTeam(ctx, world.Team{
			ID:        teamID,
			Name:      teamID,
			Chemistry: 55,
			Budget:    2_500_000_00,
		}); err != nil {
			return fmt.Errorf("store team %s: %w", teamID, err)
		}
	}
	for _, p := range starterRoster() {
		if err := store.PutPlayer(ctx, playerTeamID, p); err != nil {
			return fmt.Errorf("store player %s: %w", p.ID, err)
		}
	}
	log.Printf("seeded season: %d events, %d teams", len(events), len(season.TeamIDs))
	return nil
}

func starterRoster() []world.Player {
	return []world.Player{
		{ID: "p-vex", Name: "Vex", Role: "duelist", Rating: 88, Morale: 70, Personality: []string{"hot_headed"}},
		{ID: "p-lumen", Name: "Lumen", Role: "support", Rating: 81, Morale: 75, Personality: []string{"steady"}},
		{ID: "p-drift", Name: "Drift", Role: "flex", Rating: 78, Morale: 65},
		{ID: "p-anchor", Name: "Anchor", Role: "tank", Rating: 75, Morale: 72, Personality: []string{"veteran"}},
		{ID: "p-nova", Name: "Nova", Role: "duelist", Rating: 84, Morale: 62, Personality: []string{"ambitious"}},
	}
}

func report(result day.AdvanceResult) {
	date := result.NewDate.Format("2006-01-02")
	for _, m := range result.SimulatedMatches {
		log.Printf("%s match %s: %s %d - %d %s", date, m.MatchID, m.HomeTeamID, m.HomeScore, m.AwayScore, m.AwayTeamID)
	}
	for _, outcome := range result.ActivityResults {
		log.Printf("%s %s", date, outcome.Summary)
	}
	for _, feature := range result.NewlyUnlockedFeatures {
		log.Printf("%s unlocked: %s", date, feature)
	}
	for _, inst := range result.DramaEvents {
		log.Printf("%s drama [%s] %s", date, inst.Severity, inst.Title)
	}
	for _, warning := range result.FinanceWarnings {
		log.Printf("%s finance: %s", date, warning)
	}
	if len(result.SkippedEvents) > 0 {
		log.Printf("%s skipped %d events pending resolution", date, len(result.SkippedEvents))
	}
	if result.AutosaveDue {
		log.Printf("%s autosave checkpoint", date)
	}
}
