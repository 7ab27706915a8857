// Package ladder runs the match flow of a guild: queues fill into balanced
// matches, participants vote on the result, and confirmed matches are rated.
package ladder

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/metrics"
	"github.com/mauv0809/rift-ladder/internal/notifier"
	"github.com/mauv0809/rift-ladder/internal/pubsub"
	"github.com/mauv0809/rift-ladder/internal/store"
	"golang.org/x/sync/errgroup"
)

// Service is safe for concurrent use. It holds no match or rating state
// between calls; every operation reads what it needs from the store.
type Service struct {
	store     store.Store
	defaults  store.GuildSettings
	metrics   metrics.Metrics
	publisher pubsub.PubSubClient
	notifier  notifier.Notifier
	now       func() time.Time
	dryRun    bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDryRunNotifications makes the notifier log messages instead of sending them.
func WithDryRunNotifications(dryRun bool) Option {
	return func(s *Service) { s.dryRun = dryRun }
}

// NewService creates a Service. defaults apply to guilds without stored settings.
func NewService(st store.Store, defaults store.GuildSettings, m metrics.Metrics, p pubsub.PubSubClient, n notifier.Notifier, opts ...Option) *Service {
	s := &Service{
		store:     st,
		defaults:  defaults,
		metrics:   m,
		publisher: p,
		notifier:  n,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// announce publishes event and sends a notification concurrently. The
// operation that triggered them has already committed, so failures are only
// logged and counted.
func (s *Service) announce(ctx context.Context, topic pubsub.EventType, event any, notify func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		if err := s.publisher.SendMessage(ctx, topic, event); err != nil {
			s.metrics.IncNotifFailed()
			log.Warn("Failed to publish event", "topic", topic, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := notify(ctx); err != nil {
			log.Warn("Failed to send notification", "topic", topic, "error", err)
		}
		return nil
	})
	_ = g.Wait()
}
