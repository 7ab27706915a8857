package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
)

const queueColumns = `id, guild_id, channel_id, capacity, status, match_id, created_at, updated_at`

func scanQueue(row interface{ Scan(...any) error }) (*Queue, error) {
	var q Queue
	var status string
	var matchID sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&q.ID, &q.GuildID, &q.ChannelID, &q.Capacity, &status, &matchID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	q.Status = QueueStatus(status)
	q.MatchID = matchID.String
	q.CreatedAt = time.Unix(createdAt, 0)
	q.UpdatedAt = time.Unix(updatedAt, 0)
	return &q, nil
}

// CreateQueue inserts an open queue. A second open queue in the same channel
// fails with ErrConflict.
func (q *queries) CreateQueue(ctx context.Context, queue *Queue) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO queues (id, guild_id, channel_id, capacity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, queue.ID, queue.GuildID, queue.ChannelID, queue.Capacity, string(queue.Status), queue.CreatedAt.Unix(), queue.UpdatedAt.Unix())
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: open queue in channel %s", ErrConflict, queue.ChannelID)
		}
		return fmt.Errorf("failed to create queue: %w", err)
	}
	log.Debug("Created queue", "queueID", queue.ID, "guildID", queue.GuildID, "channelID", queue.ChannelID)
	return nil
}

func (q *queries) GetQueue(ctx context.Context, queueID string) (*Queue, error) {
	queue, err := scanQueue(q.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queues WHERE id = ?`, queueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: queue %s", match.ErrNotFound, queueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return queue, nil
}

func (q *queries) GetOpenQueue(ctx context.Context, guildID, channelID string) (*Queue, error) {
	queue, err := scanQueue(q.db.QueryRowContext(ctx, `
		SELECT `+queueColumns+`
		FROM queues
		WHERE guild_id = ? AND channel_id = ? AND status = ?
	`, guildID, channelID, string(QueueOpen)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no open queue in channel %s", match.ErrNotFound, channelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open queue: %w", err)
	}
	return queue, nil
}

// ListEntries returns a queue's entries in join order.
func (q *queries) ListEntries(ctx context.Context, queueID string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT queue_id, player_id, main_role, sub_role, joined_at
		FROM queue_entries
		WHERE queue_id = ?
		ORDER BY joined_at ASC, rowid ASC
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mainRole, subRole string
		var joinedAt int64
		if err := rows.Scan(&e.QueueID, &e.PlayerID, &mainRole, &subRole, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		e.MainRole = match.ParseRole(mainRole)
		e.SubRole = match.ParseRole(subRole)
		e.JoinedAt = time.Unix(joinedAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue entries: %w", err)
	}
	return entries, nil
}

// AddEntry inserts a queue entry. A duplicate (queue, player) fails with
// ErrConflict.
func (q *queries) AddEntry(ctx context.Context, e Entry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO queue_entries (queue_id, player_id, main_role, sub_role, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.QueueID, e.PlayerID, string(e.MainRole), string(e.SubRole), e.JoinedAt.Unix())
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: player %s in queue %s", ErrConflict, e.PlayerID, e.QueueID)
		}
		return fmt.Errorf("failed to add queue entry: %w", err)
	}
	return nil
}

func (q *queries) RemoveEntry(ctx context.Context, queueID, playerID string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE queue_id = ? AND player_id = ?`, queueID, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to remove queue entry: %w", err)
	}
	return affected(res)
}

// ConsumeQueue closes an open queue into matchID and drops its entries.
func (q *queries) ConsumeQueue(ctx context.Context, queueID, matchID string, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE queues SET status = ?, match_id = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(QueueConsumed), matchID, now.Unix(), queueID, string(QueueOpen))
	if err != nil {
		return fmt.Errorf("failed to consume queue: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: queue %s is not open", match.ErrInvalidState, queueID)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE queue_id = ?`, queueID); err != nil {
		return fmt.Errorf("failed to clear queue entries: %w", err)
	}
	log.Debug("Consumed queue", "queueID", queueID, "matchID", matchID)
	return nil
}
