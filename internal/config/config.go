package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config keeps runtime settings for the occurrence daemon.
type Config struct {
	DatabaseURL   string
	HorizonWeeks  int
	GenerateAt    string
	RetentionDays int
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HorizonWeeks:  parsePositiveInt(os.Getenv("HORIZON_WEEKS")),
		GenerateAt:    strings.TrimSpace(os.Getenv("GENERATE_AT")),
		RetentionDays: parsePositiveInt(os.Getenv("RETENTION_DAYS")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "recurrence.db"
	}
	if cfg.HorizonWeeks == 0 {
		cfg.HorizonWeeks = 8
	}
	if cfg.GenerateAt == "" {
		cfg.GenerateAt = "03:00"
	}
	if parts := strings.Split(cfg.GenerateAt, ":"); len(parts) != 2 {
		return cfg, fmt.Errorf("GENERATE_AT %q must be HH:MM", cfg.GenerateAt)
	}

	return cfg, nil
}

func parsePositiveInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
