package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// GetGuildSettings returns the guild's stored settings, or defaults when the
// guild has none.
func (q *queries) GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	s := defaults
	err := q.db.QueryRowContext(ctx, `
		SELECT initial_rating, k_normal, k_placement, placement_threshold, team_size
		FROM guild_settings
		WHERE guild_id = ?
	`, guildID).Scan(&s.InitialRating, &s.KNormal, &s.KPlacement, &s.PlacementThreshold, &s.TeamSize)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults, nil
	}
	if err != nil {
		return GuildSettings{}, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return s, nil
}

func (q *queries) SaveGuildSettings(ctx context.Context, guildID string, s GuildSettings, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, initial_rating, k_normal, k_placement, placement_threshold, team_size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			initial_rating = excluded.initial_rating,
			k_normal = excluded.k_normal,
			k_placement = excluded.k_placement,
			placement_threshold = excluded.placement_threshold,
			team_size = excluded.team_size,
			updated_at = excluded.updated_at
	`, guildID, s.InitialRating, s.KNormal, s.KPlacement, s.PlacementThreshold, s.TeamSize, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	log.Debug("Saved guild settings", "guildID", guildID)
	return nil
}
