package ladder

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/pubsub"
	"github.com/mauv0809/rift-ladder/internal/settlement"
	"github.com/mauv0809/rift-ladder/internal/store"
	"github.com/samber/lo"
)

// GetMatch returns a match with its voting figures and, once confirmed, the
// recorded rating changes.
func (s *Service) GetMatch(ctx context.Context, matchID string) (*MatchView, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	view := &MatchView{Match: m, VotesRequired: match.Threshold(len(m.Assignments))}
	if m.Status == match.StatusConfirmed {
		if view.RatingChanges, err = s.store.ListParticipants(ctx, matchID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// ListVotes returns the individual votes on a match.
func (s *Service) ListVotes(ctx context.Context, matchID string) ([]match.Vote, error) {
	if _, err := s.store.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return s.store.ListVotes(ctx, matchID)
}

// CastVote records or changes a participant's vote. Repeating the current
// vote changes nothing and reports Changed false.
func (s *Service) CastVote(ctx context.Context, matchID, playerID, choice string) (*VoteResult, error) {
	next, err := match.ParseChoice(choice)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, choice)
	}

	var result VoteResult
	err = s.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		previous, err := q.GetVote(ctx, matchID, playerID)
		if err != nil {
			return err
		}
		change, err := match.PlanVote(m, playerID, previous, next)
		if err != nil {
			return err
		}
		tally, err := q.RecordVote(ctx, match.Vote{
			MatchID:  matchID,
			PlayerID: playerID,
			Choice:   next,
			VotedAt:  s.now(),
		}, change)
		if err != nil {
			return err
		}

		_, decided := tally.Decide(len(m.Assignments))
		result = VoteResult{
			Changed:           change.Changed,
			Tally:             tally,
			TotalParticipants: len(m.Assignments),
			VotesRequired:     match.Threshold(len(m.Assignments)),
			Decided:           decided,
		}
		return nil
	})
	if err != nil {
		log.Debug("Vote rejected", "matchID", matchID, "playerID", playerID, "error", err)
		return nil, err
	}

	if !result.Changed {
		log.Debug("Vote unchanged", "matchID", matchID, "playerID", playerID, "choice", next)
		return &result, nil
	}
	s.metrics.IncVotesCast()
	log.Info("Vote cast", "matchID", matchID, "playerID", playerID, "choice", next, "tally", result.Tally, "decided", result.Decided)
	return &result, nil
}

// ConfirmMatch rates a match whose vote has reached a majority. The status
// change, participation rows and rating rows commit together; if any write
// fails nothing is applied and the match stays confirmable. A match can be
// confirmed once; later calls fail with ErrInvalidState.
func (s *Service) ConfirmMatch(ctx context.Context, matchID string) (*ConfirmResult, error) {
	start := time.Now()

	var confirmed *match.Match
	var plan settlement.Plan
	err := s.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := m.Status.RequireVoting(); err != nil {
			return err
		}
		winner, ok := m.Tally.Decide(len(m.Assignments))
		if !ok {
			return fmt.Errorf("%w: need %d, have %+v", match.ErrInsufficientVotes, match.Threshold(len(m.Assignments)), m.Tally)
		}

		settings, err := q.GetGuildSettings(ctx, m.GuildID, s.defaults)
		if err != nil {
			return err
		}
		existing, err := q.GetRatings(ctx, m.GuildID, lo.Keys(m.Assignments))
		if err != nil {
			return err
		}

		now := s.now()
		plan, err = settlement.Settle(m, winner, existing, settings.Settings, now)
		if err != nil {
			return err
		}
		if err := q.ResolveMatch(ctx, m.ID, match.StatusConfirmed, &winner, now); err != nil {
			return err
		}
		if err := q.AddParticipants(ctx, m.ID, plan.Changes); err != nil {
			return err
		}
		if err := q.SaveRatings(ctx, plan.Ratings); err != nil {
			return err
		}

		m.Status = match.StatusConfirmed
		m.Winner = &winner
		m.UpdatedAt = now
		m.ResolvedAt = &now
		confirmed = m
		return nil
	})
	if err != nil {
		log.Error("Failed to confirm match", "matchID", matchID, "error", err)
		return nil, err
	}

	s.metrics.IncMatchesConfirmed()
	s.metrics.ObserveConfirmationDuration(time.Since(start).Seconds())
	log.Info("Match confirmed", "matchID", matchID, "winner", plan.Winner, "participants", len(plan.Changes))

	event := pubsub.MatchConfirmedEvent{
		MatchID:     confirmed.ID,
		GuildID:     confirmed.GuildID,
		Winner:      plan.Winner,
		Changes:     plan.Changes,
		ConfirmedAt: *confirmed.ResolvedAt,
	}
	s.announce(ctx, pubsub.EventMatchConfirmed, event, func(ctx context.Context) error {
		return s.notifier.SendMatchConfirmed(ctx, confirmed, plan.Changes, s.dryRun)
	})

	return &ConfirmResult{
		MatchID:       confirmed.ID,
		Winner:        plan.Winner,
		RatingChanges: plan.Changes,
	}, nil
}

// CancelMatch ends a voting match without rating it.
func (s *Service) CancelMatch(ctx context.Context, matchID string) (*match.Match, error) {
	var cancelled *match.Match
	err := s.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := m.Status.Transition(match.StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		if err := q.ResolveMatch(ctx, m.ID, match.StatusCancelled, nil, now); err != nil {
			return err
		}
		m.Status = match.StatusCancelled
		m.UpdatedAt = now
		m.ResolvedAt = &now
		cancelled = m
		return nil
	})
	if err != nil {
		log.Error("Failed to cancel match", "matchID", matchID, "error", err)
		return nil, err
	}

	s.metrics.IncMatchesCancelled()
	log.Info("Match cancelled", "matchID", matchID)

	event := pubsub.MatchCancelledEvent{
		MatchID:     cancelled.ID,
		GuildID:     cancelled.GuildID,
		CancelledAt: *cancelled.ResolvedAt,
	}
	s.announce(ctx, pubsub.EventMatchCancelled, event, func(ctx context.Context) error {
		return s.notifier.SendMatchCancelled(ctx, cancelled, s.dryRun)
	})
	return cancelled, nil
}
