package frontoffice

import (
	"context"
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("frontoffice", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Days != 28 {
		t.Fatalf("expected default 28 days, got %d", cfg.Days)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected in-memory default, got %q", cfg.DBPath)
	}
	if cfg.SeasonStart != "2026-08-01" {
		t.Fatalf("expected default season start, got %q", cfg.SeasonStart)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("frontoffice", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-days", "90", "-seed", "7", "-db", "season.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Days != 90 || cfg.Seed != 7 || cfg.DBPath != "season.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestRunSimulatesSeasonStart(t *testing.T) {
	cfg := Config{
		Days:         10,
		Seed:         42,
		AutosaveDays: 7,
		TeamID:       "team-ember",
		SeasonStart:  "2026-08-01",
	}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsBadSeasonStart(t *testing.T) {
	cfg := Config{Days: 1, Seed: 1, TeamID: "team-ember", SeasonStart: "august"}
	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected season start parse error")
	}
}
