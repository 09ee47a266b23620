package app

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(nil)
	if cfg.Addr != ":8080" || cfg.MatchDuration != 180 || cfg.MaxEnemies != 6 {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("TICK_RATE", "60")
	t.Setenv("MATCH_DURATION_SECONDS", "120")
	t.Setenv("MAX_ENEMIES", "3")
	t.Setenv("KEYFRAME_INTERVAL_TICKS", "90")
	t.Setenv("SIM_SEED", "42")

	cfg := LoadConfig(nil)
	if cfg.Addr != ":9090" || cfg.TickRate != 60 || cfg.MatchDuration != 120 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.MaxEnemies != 3 || cfg.KeyframeInterval != 90 || cfg.Seed != 42 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigSkipsMalformedValues(t *testing.T) {
	t.Setenv("TICK_RATE", "not-a-number")
	t.Setenv("MATCH_DURATION_SECONDS", "-5")

	cfg := LoadConfig(nil)
	if cfg.TickRate != 0 || cfg.MatchDuration != 180 {
		t.Fatalf("cfg = %+v, want malformed values skipped", cfg)
	}
}
