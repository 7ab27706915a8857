package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	slackfmt "github.com/mauv0809/rift-ladder/internal/notifier/slack"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// slackVerifyMiddleware rejects requests without a valid Slack signature.
func slackVerifyMiddleware(signingSecret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			sv, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				log.Warn("Rejected Slack request", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if _, err := sv.Write(body); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if err := sv.Ensure(); err != nil {
				log.Warn("Invalid Slack signature", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// LeaderboardCommandHandler answers `/leaderboard <guild> [limit]`.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		args := strings.Fields(cmd.Text)
		if len(args) == 0 {
			http.Error(w, "Guild id is required.", http.StatusBadRequest)
			return
		}
		limit := 0
		if len(args) > 1 {
			limit, _ = strconv.Atoi(args[1])
		}

		log.Info("Received leaderboard command", "guild", args[0], "user", cmd.UserID)
		rows, err := s.Ladder.Leaderboard(r.Context(), args[0], limit)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			return
		}
		respondWithSlackMsg(w, slackfmt.FormatLeaderboard(args[0], rows))
	}
}

// RatingCommandHandler answers `/rating <guild> <player>`.
func (s *Server) RatingCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		args := strings.Fields(cmd.Text)
		if len(args) != 2 {
			http.Error(w, "Usage: <guild> <player>", http.StatusBadRequest)
			return
		}
		guildID, playerID := args[0], args[1]

		log.Info("Received rating command", "guild", guildID, "player", playerID, "user", cmd.UserID)
		row, err := s.Ladder.GetRating(r.Context(), guildID, playerID)
		if errors.Is(err, match.ErrNotFound) {
			respondWithSlackMsg(w, slackfmt.FormatPlayerNotFound(playerID))
			return
		}
		if err != nil {
			log.Error("Failed to get rating", "error", err)
			http.Error(w, "Failed to get rating", http.StatusInternalServerError)
			return
		}
		settings, err := s.Ladder.GetGuildSettings(r.Context(), guildID)
		if err != nil {
			log.Error("Failed to get guild settings", "error", err)
			http.Error(w, "Failed to get rating", http.StatusInternalServerError)
			return
		}
		respondWithSlackMsg(w, slackfmt.FormatRating(row, settings.PlacementThreshold))
	}
}
