package store

import (
	"errors"
	"time"

	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
)

// ErrConflict is returned when a write hits a uniqueness constraint.
var ErrConflict = errors.New("conflicting row")

// QueueStatus is the state of a join queue.
type QueueStatus string

const (
	QueueOpen     QueueStatus = "open"
	QueueConsumed QueueStatus = "consumed"
)

const (
	DefaultTeamSize = 5
	MaxTeamSize     = 5
)

// Queue is a per-channel join queue.
type Queue struct {
	ID        string      `json:"id"`
	GuildID   string      `json:"guild_id"`
	ChannelID string      `json:"channel_id"`
	Capacity  int         `json:"capacity"`
	Status    QueueStatus `json:"status"`
	MatchID   string      `json:"match_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Entry is one player's slot in a queue.
type Entry struct {
	QueueID  string     `json:"queue_id"`
	PlayerID string     `json:"player_id"`
	MainRole match.Role `json:"main_role"`
	SubRole  match.Role `json:"sub_role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// GuildSettings are the ladder constants a guild can override.
type GuildSettings struct {
	rating.Settings
	TeamSize int `json:"team_size"`
}

// DefaultGuildSettings returns the stock settings.
func DefaultGuildSettings() GuildSettings {
	return GuildSettings{Settings: rating.DefaultSettings(), TeamSize: DefaultTeamSize}
}

// QueueCapacity is the number of players that fills a queue.
func (g GuildSettings) QueueCapacity() int {
	return 2 * g.TeamSize
}

// Validate rejects settings the ladder cannot run with.
func (g GuildSettings) Validate() error {
	if err := g.Settings.Validate(); err != nil {
		return err
	}
	if g.TeamSize < 1 || g.TeamSize > MaxTeamSize {
		return errors.New("team size must be between 1 and 5")
	}
	return nil
}
