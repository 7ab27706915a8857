package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/mauv0809/rift-ladder/internal/store"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) OpenQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openQueueRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.GuildID == "" || req.ChannelID == "" {
			writeError(w, fmt.Errorf("%w: guildId and channelId are required", match.ErrInvalidInput))
			return
		}
		queue, err := s.Ladder.OpenQueue(r.Context(), req.GuildID, req.ChannelID, req.Capacity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, queue)
	}
}

func (s *Server) GetQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Ladder.GetQueue(r.Context(), r.PathValue("queueID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) JoinQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinQueueRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := s.Ladder.JoinQueue(r.Context(), r.PathValue("queueID"), req.PlayerID, req.MainRole, req.SubRole)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) LeaveQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leaveQueueRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.Ladder.LeaveQueue(r.Context(), r.PathValue("queueID"), req.PlayerID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) StartMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Ladder.StartMatch(r.Context(), r.PathValue("queueID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Ladder.GetMatch(r.Context(), r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) ListVotesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		votes, err := s.Ladder.ListVotes(r.Context(), r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, votes)
	}
}

func (s *Server) CastVoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := s.Ladder.CastVote(r.Context(), r.PathValue("matchID"), req.PlayerID, req.Choice)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) ConfirmMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Ladder.ConfirmMatch(r.Context(), r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) CancelMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Ladder.CancelMatch(r.Context(), r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) GetRatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := s.Ladder.GetRating(r.Context(), r.PathValue("guildID"), r.PathValue("playerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func (s *Server) InitializePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := s.Ladder.InitializePlayer(r.Context(), r.PathValue("guildID"), r.PathValue("playerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func (s *Server) ResetPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ladder.ResetPlayer(r.Context(), r.PathValue("guildID"), r.PathValue("playerID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, fmt.Errorf("%w: limit must be a number", match.ErrInvalidInput))
				return
			}
			limit = n
		}
		rows, err := s.Ladder.Leaderboard(r.Context(), r.PathValue("guildID"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if rows == nil {
			rows = []rating.PlayerRating{}
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func (s *Server) GetGuildSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.Ladder.GetGuildSettings(r.Context(), r.PathValue("guildID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func (s *Server) UpdateGuildSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings store.GuildSettings
		if !decodeBody(w, r, &settings) {
			return
		}
		saved, err := s.Ladder.UpdateGuildSettings(r.Context(), r.PathValue("guildID"), settings)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Invalid request body", "url", r.URL.String(), "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// statusFor maps the ladder's error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, match.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, match.ErrInsufficientVotes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, match.ErrInvalidState),
		errors.Is(err, match.ErrCapacityExceeded),
		errors.Is(err, match.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, match.ErrInvalidInput),
		errors.Is(err, match.ErrInvalidChoice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
