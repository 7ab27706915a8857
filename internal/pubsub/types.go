package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/settlement"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventMatchFormed    EventType = "match-formed"
	EventMatchConfirmed EventType = "match-confirmed"
	EventMatchCancelled EventType = "match-cancelled"
)

// MatchFormedEvent is published when a queue fills or is force-started.
type MatchFormedEvent struct {
	MatchID     string            `msgpack:"match_id"`
	GuildID     string            `msgpack:"guild_id"`
	QueueID     string            `msgpack:"queue_id"`
	Assignments match.Assignments `msgpack:"assignments"`
	FormedAt    time.Time         `msgpack:"formed_at"`
}

// MatchConfirmedEvent is published once a match has been rated.
type MatchConfirmedEvent struct {
	MatchID     string              `msgpack:"match_id"`
	GuildID     string              `msgpack:"guild_id"`
	Winner      match.Choice        `msgpack:"winner"`
	Changes     []settlement.Change `msgpack:"changes"`
	ConfirmedAt time.Time           `msgpack:"confirmed_at"`
}

// MatchCancelledEvent is published when a voting match is cancelled.
type MatchCancelledEvent struct {
	MatchID     string    `msgpack:"match_id"`
	GuildID     string    `msgpack:"guild_id"`
	CancelledAt time.Time `msgpack:"cancelled_at"`
}
