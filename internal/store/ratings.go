package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/samber/lo"
)

const ratingColumns = `guild_id, player_id, rating, wins, losses, draws, placement_games, peak_rating, updated_at`

func scanRating(row interface{ Scan(...any) error }) (rating.PlayerRating, error) {
	var r rating.PlayerRating
	var updatedAt int64
	err := row.Scan(&r.GuildID, &r.PlayerID, &r.Rating, &r.Wins, &r.Losses, &r.Draws, &r.PlacementGames, &r.PeakRating, &updatedAt)
	r.UpdatedAt = time.Unix(updatedAt, 0)
	return r, err
}

func (q *queries) GetRating(ctx context.Context, guildID, playerID string) (*rating.PlayerRating, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+ratingColumns+` FROM player_ratings WHERE guild_id = ? AND player_id = ?`, guildID, playerID)
	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rating for player %s", match.ErrNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &r, nil
}

// GetRatings returns the rating rows that exist for playerIDs, keyed by
// player id.
func (q *queries) GetRatings(ctx context.Context, guildID string, playerIDs []string) (map[string]rating.PlayerRating, error) {
	out := make(map[string]rating.PlayerRating, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	args := append([]any{guildID}, lo.ToAnySlice(playerIDs)...)
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+ratingColumns+`
		FROM player_ratings
		WHERE guild_id = ? AND player_id IN (`+placeholders(len(playerIDs))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		out[r.PlayerID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return out, nil
}

// ListRatings returns up to limit of a guild's rating rows, highest first.
func (q *queries) ListRatings(ctx context.Context, guildID string, limit int) ([]rating.PlayerRating, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+ratingColumns+`
		FROM player_ratings
		WHERE guild_id = ?
		ORDER BY rating DESC, player_id ASC
		LIMIT ?
	`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []rating.PlayerRating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return out, nil
}

// CreateRating inserts row unless the player already has one. It reports
// whether a row was created.
func (q *queries) CreateRating(ctx context.Context, row rating.PlayerRating) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO player_ratings (`+ratingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, player_id) DO NOTHING
	`, row.GuildID, row.PlayerID, row.Rating, row.Wins, row.Losses, row.Draws, row.PlacementGames, row.PeakRating, row.UpdatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to create rating: %w", err)
	}
	return affected(res)
}

// SaveRatings upserts complete rating rows.
func (q *queries) SaveRatings(ctx context.Context, rows []rating.PlayerRating) error {
	for _, r := range rows {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO player_ratings (`+ratingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(guild_id, player_id) DO UPDATE SET
				rating = excluded.rating,
				wins = excluded.wins,
				losses = excluded.losses,
				draws = excluded.draws,
				placement_games = excluded.placement_games,
				peak_rating = excluded.peak_rating,
				updated_at = excluded.updated_at
		`, r.GuildID, r.PlayerID, r.Rating, r.Wins, r.Losses, r.Draws, r.PlacementGames, r.PeakRating, r.UpdatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to save rating for player %s: %w", r.PlayerID, err)
		}
	}
	return nil
}

func (q *queries) DeleteRating(ctx context.Context, guildID, playerID string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM player_ratings WHERE guild_id = ? AND player_id = ?`, guildID, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete rating: %w", err)
	}
	return affected(res)
}
