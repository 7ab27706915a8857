package notifier

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/settlement"
)

// Notifier defines a high-level interface for sending notifications about ladder events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	SendMatchFormed(ctx context.Context, m *match.Match, dryRun bool) error
	SendMatchConfirmed(ctx context.Context, m *match.Match, changes []settlement.Change, dryRun bool) error
	SendMatchCancelled(ctx context.Context, m *match.Match, dryRun bool) error
}

type noop struct{}

// NewNoop returns a Notifier that only logs. It is used when no ops channel
// is configured.
func NewNoop() Notifier {
	return noop{}
}

func (noop) SendMatchFormed(_ context.Context, m *match.Match, _ bool) error {
	log.Debug("Notifications disabled, skipping match formed", "matchID", m.ID)
	return nil
}

func (noop) SendMatchConfirmed(_ context.Context, m *match.Match, _ []settlement.Change, _ bool) error {
	log.Debug("Notifications disabled, skipping match confirmed", "matchID", m.ID)
	return nil
}

func (noop) SendMatchCancelled(_ context.Context, m *match.Match, _ bool) error {
	log.Debug("Notifications disabled, skipping match cancelled", "matchID", m.ID)
	return nil
}
