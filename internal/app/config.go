package app

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Yewatermelon/FPSGame/internal/telemetry"
)

// Config carries the server settings resolved from the environment.
type Config struct {
	Addr             string
	TickRate         int
	MatchDuration    float64
	MaxEnemies       int
	KeyframeInterval int
	Seed             int64
}

// DefaultConfig returns the baseline server settings.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		MatchDuration: 180,
		MaxEnemies:    6,
	}
}

// LoadConfig reads settings from a .env file, when present, and the process
// environment. Malformed values are logged and skipped.
func LoadConfig(logger telemetry.Logger) Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TickRate = value
		} else if logger != nil {
			logger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("MATCH_DURATION_SECONDS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.MatchDuration = value
		} else if logger != nil {
			logger.Printf("invalid MATCH_DURATION_SECONDS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("MAX_ENEMIES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxEnemies = value
		} else if logger != nil {
			logger.Printf("invalid MAX_ENEMIES=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("KEYFRAME_INTERVAL_TICKS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.KeyframeInterval = value
		} else if logger != nil {
			logger.Printf("invalid KEYFRAME_INTERVAL_TICKS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("SIM_SEED"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Seed = value
		} else if logger != nil {
			logger.Printf("invalid SIM_SEED=%q: %v", raw, err)
		}
	}
	return cfg
}
