package ladder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/mauv0809/rift-ladder/internal/store"
)

// InitializePlayer gives a player the guild's initial rating unless they
// already have a rating row, and returns the row.
func (s *Service) InitializePlayer(ctx context.Context, guildID, playerID string) (*rating.PlayerRating, error) {
	if guildID == "" || playerID == "" {
		return nil, fmt.Errorf("%w: guild and player id are required", match.ErrInvalidInput)
	}

	var row *rating.PlayerRating
	created := false
	err := s.store.InTx(ctx, func(q store.Queries) error {
		settings, err := q.GetGuildSettings(ctx, guildID, s.defaults)
		if err != nil {
			return err
		}
		if created, err = q.CreateRating(ctx, settings.NewPlayer(guildID, playerID, s.now())); err != nil {
			return err
		}
		row, err = q.GetRating(ctx, guildID, playerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("Initialized player", "guildID", guildID, "playerID", playerID, "rating", row.Rating)
	}
	return row, nil
}

// GetRating returns a player's rating row.
func (s *Service) GetRating(ctx context.Context, guildID, playerID string) (*rating.PlayerRating, error) {
	return s.store.GetRating(ctx, guildID, playerID)
}

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// Leaderboard returns the guild's highest rated players. A limit outside
// 1..MaxLeaderboardSize uses DefaultLeaderboardSize.
func (s *Service) Leaderboard(ctx context.Context, guildID string, limit int) ([]rating.PlayerRating, error) {
	if limit <= 0 || limit > MaxLeaderboardSize {
		limit = DefaultLeaderboardSize
	}
	rows, err := s.store.ListRatings(ctx, guildID, limit)
	if err != nil {
		log.Error("Failed to load leaderboard", "guildID", guildID, "error", err)
		return nil, err
	}
	return rows, nil
}

// ResetPlayer deletes a player's rating row. Their next match starts them
// again from the initial rating.
func (s *Service) ResetPlayer(ctx context.Context, guildID, playerID string) error {
	deleted, err := s.store.DeleteRating(ctx, guildID, playerID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: rating for player %s", match.ErrNotFound, playerID)
	}
	log.Info("Reset player", "guildID", guildID, "playerID", playerID)
	return nil
}

// GetGuildSettings returns the guild's settings, falling back to the process
// defaults.
func (s *Service) GetGuildSettings(ctx context.Context, guildID string) (store.GuildSettings, error) {
	return s.store.GetGuildSettings(ctx, guildID, s.defaults)
}

// UpdateGuildSettings validates and stores a guild's settings.
func (s *Service) UpdateGuildSettings(ctx context.Context, guildID string, settings store.GuildSettings) (store.GuildSettings, error) {
	if err := settings.Validate(); err != nil {
		return store.GuildSettings{}, fmt.Errorf("%w: %v", match.ErrInvalidInput, err)
	}
	if err := s.store.SaveGuildSettings(ctx, guildID, settings, s.now()); err != nil {
		return store.GuildSettings{}, err
	}
	log.Info("Updated guild settings", "guildID", guildID, "settings", settings)
	return settings, nil
}
