package ladder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/rift-ladder/internal/balancer"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/pubsub"
	"github.com/mauv0809/rift-ladder/internal/store"
	"github.com/samber/lo"
)

// OpenQueue returns the channel's open queue, creating one if there is none.
// A capacity of 0 uses twice the guild's team size.
func (s *Service) OpenQueue(ctx context.Context, guildID, channelID string, capacity int) (*store.Queue, error) {
	if capacity != 0 && capacity < 2 {
		return nil, fmt.Errorf("%w: capacity must be at least 2", match.ErrInvalidInput)
	}

	var queue *store.Queue
	created := false
	err := s.store.InTx(ctx, func(q store.Queries) error {
		existing, err := q.GetOpenQueue(ctx, guildID, channelID)
		if err == nil {
			queue = existing
			return nil
		}
		if !errors.Is(err, match.ErrNotFound) {
			return err
		}

		settings, err := q.GetGuildSettings(ctx, guildID, s.defaults)
		if err != nil {
			return err
		}
		if capacity == 0 {
			capacity = settings.QueueCapacity()
		}

		now := s.now()
		queue = &store.Queue{
			ID:        uuid.New().String(),
			GuildID:   guildID,
			ChannelID: channelID,
			Capacity:  capacity,
			Status:    store.QueueOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created = true
		return q.CreateQueue(ctx, queue)
	})
	if err != nil {
		log.Error("Failed to open queue", "guildID", guildID, "channelID", channelID, "error", err)
		return nil, err
	}

	if created {
		log.Info("Opened queue", "queueID", queue.ID, "guildID", guildID, "channelID", channelID, "capacity", queue.Capacity)
	} else {
		log.Debug("Queue already open", "queueID", queue.ID, "channelID", channelID)
	}
	return queue, nil
}

// GetQueue returns a queue and its entries.
func (s *Service) GetQueue(ctx context.Context, queueID string) (*QueueView, error) {
	queue, err := s.store.GetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, queueID)
	if err != nil {
		return nil, err
	}
	return &QueueView{Queue: queue, Entries: entries}, nil
}

// JoinQueue adds a player to an open queue. Membership and capacity are
// checked inside the same transaction as the insert, so of two players racing
// for the last slot exactly one gets in. The join that fills the queue forms
// the match before the transaction commits.
func (s *Service) JoinQueue(ctx context.Context, queueID, playerID, mainRole, subRole string) (*JoinResult, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", match.ErrInvalidInput)
	}

	result := &JoinResult{}
	err := s.store.InTx(ctx, func(q store.Queries) error {
		queue, err := q.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status != store.QueueOpen {
			return fmt.Errorf("%w: queue %s already formed a match", match.ErrCapacityExceeded, queueID)
		}

		entries, err := q.ListEntries(ctx, queueID)
		if err != nil {
			return err
		}
		if err := checkJoin(queue, entries, playerID); err != nil {
			return err
		}

		entry := store.Entry{
			QueueID:  queueID,
			PlayerID: playerID,
			MainRole: match.ParseRole(mainRole),
			SubRole:  match.ParseRole(subRole),
			JoinedAt: s.now(),
		}
		if err := q.AddEntry(ctx, entry); err != nil {
			if !errors.Is(err, store.ErrConflict) {
				return err
			}
			// Re-read to report why the insert lost.
			entries, rerr := q.ListEntries(ctx, queueID)
			if rerr != nil {
				return rerr
			}
			if cerr := checkJoin(queue, entries, playerID); cerr != nil {
				return cerr
			}
			return err
		}
		entries = append(entries, entry)

		if len(entries) >= queue.Capacity {
			m, err := s.formMatch(ctx, q, queue, entries)
			if err != nil {
				return err
			}
			result.Match = m
			queue.Status = store.QueueConsumed
			queue.MatchID = m.ID
			entries = nil
		}
		result.Queue = queue
		result.Entries = entries
		return nil
	})
	if err != nil {
		log.Debug("Join rejected", "queueID", queueID, "playerID", playerID, "error", err)
		return nil, err
	}

	s.metrics.IncQueueJoins()
	log.Info("Player joined queue", "queueID", queueID, "playerID", playerID)
	if result.Match != nil {
		s.matchFormed(ctx, result.Match)
	}
	return result, nil
}

func checkJoin(queue *store.Queue, entries []store.Entry, playerID string) error {
	if slices.ContainsFunc(entries, func(e store.Entry) bool { return e.PlayerID == playerID }) {
		return fmt.Errorf("%w: %s", match.ErrAlreadyJoined, playerID)
	}
	if len(entries) >= queue.Capacity {
		return fmt.Errorf("%w: %d/%d", match.ErrCapacityExceeded, len(entries), queue.Capacity)
	}
	return nil
}

// LeaveQueue removes a player from an open queue.
func (s *Service) LeaveQueue(ctx context.Context, queueID, playerID string) error {
	err := s.store.InTx(ctx, func(q store.Queries) error {
		queue, err := q.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status != store.QueueOpen {
			return fmt.Errorf("%w: queue %s is %s", match.ErrInvalidState, queueID, queue.Status)
		}
		removed, err := q.RemoveEntry(ctx, queueID, playerID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: player %s is not in queue %s", match.ErrNotFound, playerID, queueID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("Player left queue", "queueID", queueID, "playerID", playerID)
	return nil
}

// StartMatch forms a match from whoever is queued, without waiting for the
// queue to fill. At least two players are required.
func (s *Service) StartMatch(ctx context.Context, queueID string) (*match.Match, error) {
	var formed *match.Match
	err := s.store.InTx(ctx, func(q store.Queries) error {
		queue, err := q.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status != store.QueueOpen {
			return fmt.Errorf("%w: queue %s is %s", match.ErrInvalidState, queueID, queue.Status)
		}
		entries, err := q.ListEntries(ctx, queueID)
		if err != nil {
			return err
		}
		if len(entries) < 2 {
			return fmt.Errorf("%w: need at least 2 players, have %d", match.ErrInvalidState, len(entries))
		}
		formed, err = s.formMatch(ctx, q, queue, entries)
		return err
	})
	if err != nil {
		log.Error("Failed to start match", "queueID", queueID, "error", err)
		return nil, err
	}
	s.matchFormed(ctx, formed)
	return formed, nil
}

// formMatch balances the queued players on their current ratings, stores the
// match and consumes the queue. It runs inside the caller's transaction.
func (s *Service) formMatch(ctx context.Context, q store.Queries, queue *store.Queue, entries []store.Entry) (*match.Match, error) {
	settings, err := q.GetGuildSettings(ctx, queue.GuildID, s.defaults)
	if err != nil {
		return nil, err
	}
	ids := lo.Map(entries, func(e store.Entry, _ int) string { return e.PlayerID })
	ratings, err := q.GetRatings(ctx, queue.GuildID, ids)
	if err != nil {
		return nil, err
	}

	players := lo.Map(entries, func(e store.Entry, _ int) balancer.Player {
		r := settings.InitialRating
		if row, ok := ratings[e.PlayerID]; ok {
			r = row.Rating
		}
		return balancer.Player{ID: e.PlayerID, Rating: r, MainRole: e.MainRole, SubRole: e.SubRole}
	})

	now := s.now()
	m := &match.Match{
		ID:          uuid.New().String(),
		GuildID:     queue.GuildID,
		QueueID:     queue.ID,
		Status:      match.StatusVoting,
		Assignments: balancer.Balance(players),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := q.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	if err := q.ConsumeQueue(ctx, queue.ID, m.ID, now); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) matchFormed(ctx context.Context, m *match.Match) {
	s.metrics.IncMatchesFormed()
	log.Info("Match formed", "matchID", m.ID, "guildID", m.GuildID, "queueID", m.QueueID, "participants", len(m.Assignments))

	event := pubsub.MatchFormedEvent{
		MatchID:     m.ID,
		GuildID:     m.GuildID,
		QueueID:     m.QueueID,
		Assignments: m.Assignments,
		FormedAt:    m.CreatedAt,
	}
	s.announce(ctx, pubsub.EventMatchFormed, event, func(ctx context.Context) error {
		return s.notifier.SendMatchFormed(ctx, m, s.dryRun)
	})
}
