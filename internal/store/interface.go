package store

import (
	"context"
	"time"

	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/mauv0809/rift-ladder/internal/settlement"
)

// Queries is every read and write the ladder performs. Inside InTx the same
// methods run against the transaction.
type Queries interface {
	GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error)
	SaveGuildSettings(ctx context.Context, guildID string, settings GuildSettings, now time.Time) error

	GetRating(ctx context.Context, guildID, playerID string) (*rating.PlayerRating, error)
	GetRatings(ctx context.Context, guildID string, playerIDs []string) (map[string]rating.PlayerRating, error)
	ListRatings(ctx context.Context, guildID string, limit int) ([]rating.PlayerRating, error)
	CreateRating(ctx context.Context, row rating.PlayerRating) (bool, error)
	SaveRatings(ctx context.Context, rows []rating.PlayerRating) error
	DeleteRating(ctx context.Context, guildID, playerID string) (bool, error)

	CreateQueue(ctx context.Context, q *Queue) error
	GetQueue(ctx context.Context, queueID string) (*Queue, error)
	GetOpenQueue(ctx context.Context, guildID, channelID string) (*Queue, error)
	ListEntries(ctx context.Context, queueID string) ([]Entry, error)
	AddEntry(ctx context.Context, e Entry) error
	RemoveEntry(ctx context.Context, queueID, playerID string) (bool, error)
	ConsumeQueue(ctx context.Context, queueID, matchID string, now time.Time) error

	CreateMatch(ctx context.Context, m *match.Match) error
	GetMatch(ctx context.Context, matchID string) (*match.Match, error)
	GetVote(ctx context.Context, matchID, playerID string) (*match.Choice, error)
	ListVotes(ctx context.Context, matchID string) ([]match.Vote, error)
	RecordVote(ctx context.Context, v match.Vote, change match.VoteChange) (match.Tally, error)
	ResolveMatch(ctx context.Context, matchID string, status match.Status, winner *match.Choice, now time.Time) error
	AddParticipants(ctx context.Context, matchID string, changes []settlement.Change) error
	ListParticipants(ctx context.Context, matchID string) ([]settlement.Change, error)
}

// Store is the ladder's persistence layer.
type Store interface {
	Queries
	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
