package config

import "github.com/mauv0809/rift-ladder/internal/store"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Slack     SlackConfig
	Turso     TursoConfig
	ProjectID string
	// DryRun makes the Slack notifier log messages instead of posting them.
	DryRun bool
	// Defaults apply to guilds without stored settings.
	Defaults store.GuildSettings
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

// Enabled reports whether the ops feed has somewhere to post.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
