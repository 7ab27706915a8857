package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/settlement"
)

const matchColumns = `id, guild_id, queue_id, status, blue_votes, red_votes, draw_votes, winning_team,
	team_assignments_json, created_at, updated_at, resolved_at`

func scanMatch(row interface{ Scan(...any) error }) (*match.Match, error) {
	var m match.Match
	var queueID, winner sql.NullString
	var status string
	var assignmentsBlob []byte
	var createdAt, updatedAt int64
	var resolvedAt sql.NullInt64

	err := row.Scan(
		&m.ID,
		&m.GuildID,
		&queueID,
		&status,
		&m.Tally.Blue,
		&m.Tally.Red,
		&m.Tally.Draw,
		&winner,
		&assignmentsBlob,
		&createdAt,
		&updatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if m.Status, err = match.ParseStatus(status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(assignmentsBlob, &m.Assignments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team assignments: %w", err)
	}
	m.QueueID = queueID.String
	if winner.Valid {
		c := match.Choice(winner.String)
		m.Winner = &c
	}
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)
	if resolvedAt.Valid {
		t := time.Unix(resolvedAt.Int64, 0)
		m.ResolvedAt = &t
	}
	return &m, nil
}

// CreateMatch persists a newly formed match with zero votes.
func (q *queries) CreateMatch(ctx context.Context, m *match.Match) error {
	blob, err := json.Marshal(m.Assignments)
	if err != nil {
		return fmt.Errorf("failed to marshal team assignments: %w", err)
	}
	var queueID sql.NullString
	if m.QueueID != "" {
		queueID = sql.NullString{String: m.QueueID, Valid: true}
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO matches (id, guild_id, queue_id, status, team_assignments_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.GuildID, queueID, string(m.Status), string(blob), m.CreatedAt.Unix(), m.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	log.Debug("Created match", "matchID", m.ID, "participants", len(m.Assignments))
	return nil
}

func (q *queries) GetMatch(ctx context.Context, matchID string) (*match.Match, error) {
	m, err := scanMatch(q.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s", match.ErrNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// GetVote returns the player's current vote, or nil if they have not voted.
func (q *queries) GetVote(ctx context.Context, matchID, playerID string) (*match.Choice, error) {
	var choice string
	err := q.db.QueryRowContext(ctx, `SELECT choice FROM match_votes WHERE match_id = ? AND player_id = ?`, matchID, playerID).Scan(&choice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	c := match.Choice(choice)
	return &c, nil
}

func (q *queries) ListVotes(ctx context.Context, matchID string) ([]match.Vote, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT match_id, player_id, choice, voted_at
		FROM match_votes
		WHERE match_id = ?
		ORDER BY voted_at ASC, player_id ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []match.Vote
	for rows.Next() {
		var v match.Vote
		var choice string
		var votedAt int64
		if err := rows.Scan(&v.MatchID, &v.PlayerID, &choice, &votedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Choice = match.Choice(choice)
		v.VotedAt = time.Unix(votedAt, 0)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

// RecordVote stores v and moves the match tallies by change. Tallies are
// adjusted in SQL, never from a copy held in memory. The update only applies
// while the match is voting; otherwise ErrInvalidState is returned.
func (q *queries) RecordVote(ctx context.Context, v match.Vote, change match.VoteChange) (match.Tally, error) {
	if change.Changed {
		d := change.Deltas()
		res, err := q.db.ExecContext(ctx, `
			UPDATE matches SET
				blue_votes = blue_votes + ?,
				red_votes = red_votes + ?,
				draw_votes = draw_votes + ?,
				updated_at = ?
			WHERE id = ? AND status = ?
		`, d[match.ChoiceBlue], d[match.ChoiceRed], d[match.ChoiceDraw], v.VotedAt.Unix(), v.MatchID, string(match.StatusVoting))
		if err != nil {
			return match.Tally{}, fmt.Errorf("failed to update tally: %w", err)
		}
		ok, err := affected(res)
		if err != nil {
			return match.Tally{}, err
		}
		if !ok {
			return match.Tally{}, fmt.Errorf("%w: match %s is no longer voting", match.ErrInvalidState, v.MatchID)
		}

		_, err = q.db.ExecContext(ctx, `
			INSERT INTO match_votes (match_id, player_id, choice, voted_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(match_id, player_id) DO UPDATE SET
				choice = excluded.choice,
				voted_at = excluded.voted_at
		`, v.MatchID, v.PlayerID, string(v.Choice), v.VotedAt.Unix())
		if err != nil {
			return match.Tally{}, fmt.Errorf("failed to record vote: %w", err)
		}
	}

	var t match.Tally
	err := q.db.QueryRowContext(ctx, `SELECT blue_votes, red_votes, draw_votes FROM matches WHERE id = ?`, v.MatchID).
		Scan(&t.Blue, &t.Red, &t.Draw)
	if err != nil {
		return match.Tally{}, fmt.Errorf("failed to read tally: %w", err)
	}
	return t, nil
}

// ResolveMatch moves a voting match to a terminal status. It fails with
// ErrInvalidState if the match has already left voting.
func (q *queries) ResolveMatch(ctx context.Context, matchID string, status match.Status, winner *match.Choice, now time.Time) error {
	if err := match.StatusVoting.Transition(status); err != nil {
		return err
	}
	var winning sql.NullString
	if winner != nil {
		winning = sql.NullString{String: string(*winner), Valid: true}
	}

	res, err := q.db.ExecContext(ctx, `
		UPDATE matches SET status = ?, winning_team = ?, updated_at = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`, string(status), winning, now.Unix(), now.Unix(), matchID, string(match.StatusVoting))
	if err != nil {
		return fmt.Errorf("failed to resolve match: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: match %s is no longer voting", match.ErrInvalidState, matchID)
	}
	log.Debug("Resolved match", "matchID", matchID, "status", status)
	return nil
}

// AddParticipants writes the participation rows of a confirmed match.
func (q *queries) AddParticipants(ctx context.Context, matchID string, changes []settlement.Change) error {
	for _, c := range changes {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO match_participants (match_id, player_id, team, role, rating_before, rating_after, rating_change)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, matchID, c.PlayerID, string(c.Team), string(c.Role), c.RatingBefore, c.RatingAfter, c.Change)
		if err != nil {
			return fmt.Errorf("failed to add participant %s: %w", c.PlayerID, err)
		}
	}
	return nil
}

// ListParticipants returns the rating changes recorded when a match was
// confirmed, BLUE first.
func (q *queries) ListParticipants(ctx context.Context, matchID string) ([]settlement.Change, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT player_id, team, role, rating_before, rating_after, rating_change
		FROM match_participants
		WHERE match_id = ?
		ORDER BY team ASC, player_id ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var changes []settlement.Change
	for rows.Next() {
		var c settlement.Change
		var team, role string
		if err := rows.Scan(&c.PlayerID, &team, &role, &c.RatingBefore, &c.RatingAfter, &c.Change); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		c.Team = match.Team(team)
		c.Role = match.Role(role)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return changes, nil
}
