package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/rift-ladder/internal/store"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from lookup. DB_NAME and PORT are required; the
// LADDER_* variables override the stock rating defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	required := func(key string) (string, error) {
		if value, ok := lookup(key); ok && value != "" {
			return value, nil
		}
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	optional := func(key string) string {
		value, _ := lookup(key)
		return value
	}
	intVar := func(key string, dst *int) error {
		value, ok := lookup(key)
		if !ok || value == "" {
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	var cfg Config
	var err error
	if cfg.DBName, err = required("DB_NAME"); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = required("PORT"); err != nil {
		return Config{}, err
	}
	cfg.Slack = SlackConfig{
		Token:         optional("SLACK_BOT_TOKEN"),
		ChannelID:     optional("SLACK_CHANNEL_ID"),
		SigningSecret: optional("SLACK_SIGNING_SECRET"),
	}
	cfg.Turso = TursoConfig{
		PrimaryURL: optional("TURSO_PRIMARY_URL"),
		AuthToken:  optional("TURSO_AUTH_TOKEN"),
	}
	cfg.ProjectID = optional("GCP_PROJECT")
	cfg.DryRun = optional("SLACK_DRY_RUN") == "true"

	cfg.Defaults = store.DefaultGuildSettings()
	for key, dst := range map[string]*int{
		"LADDER_INITIAL_RATING":  &cfg.Defaults.InitialRating,
		"LADDER_K_NORMAL":        &cfg.Defaults.KNormal,
		"LADDER_K_PLACEMENT":     &cfg.Defaults.KPlacement,
		"LADDER_PLACEMENT_GAMES": &cfg.Defaults.PlacementThreshold,
		"LADDER_TEAM_SIZE":       &cfg.Defaults.TeamSize,
	} {
		if err := intVar(key, dst); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return Config{}, fmt.Errorf("ladder defaults: %w", err)
	}
	return cfg, nil
}
