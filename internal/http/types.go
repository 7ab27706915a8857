package http

import (
	"net/http"

	"github.com/mauv0809/rift-ladder/internal/ladder"
	"github.com/mauv0809/rift-ladder/internal/metrics"
)

type Server struct {
	Ladder             *ladder.Service
	Metrics            metrics.Metrics
	MetricsHandler     http.Handler
	SlackSigningSecret string
	Router             *http.ServeMux
}

type openQueueRequest struct {
	GuildID   string `json:"guildId"`
	ChannelID string `json:"channelId"`
	Capacity  int    `json:"capacity"`
}

type joinQueueRequest struct {
	PlayerID string `json:"playerId"`
	MainRole string `json:"mainRole"`
	SubRole  string `json:"subRole"`
}

type leaveQueueRequest struct {
	PlayerID string `json:"playerId"`
}

type voteRequest struct {
	PlayerID string `json:"playerId"`
	Choice   string `json:"choice"`
}

type errorResponse struct {
	Error string `json:"error"`
}
