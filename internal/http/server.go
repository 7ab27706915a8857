package http

import (
	"net/http"

	"github.com/mauv0809/rift-ladder/internal/ladder"
	"github.com/mauv0809/rift-ladder/internal/metrics"
)

// NewServer builds the API. Slack slash commands are only served when
// slackSigningSecret is set.
func NewServer(svc *ladder.Service, metricsSvc metrics.Metrics, metricsHandler http.Handler, slackSigningSecret string) *Server {
	server := &Server{
		Ladder:             svc,
		Metrics:            metricsSvc,
		MetricsHandler:     metricsHandler,
		SlackSigningSecret: slackSigningSecret,
		Router:             http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("POST /queues", Chain(s.OpenQueueHandler(), paramsMiddleware))
	s.Router.Handle("GET /queues/{queueID}", Chain(s.GetQueueHandler(), paramsMiddleware))
	s.Router.Handle("POST /queues/{queueID}/join", Chain(s.JoinQueueHandler(), paramsMiddleware))
	s.Router.Handle("POST /queues/{queueID}/leave", Chain(s.LeaveQueueHandler(), paramsMiddleware))
	s.Router.Handle("POST /queues/{queueID}/start", Chain(s.StartMatchHandler(), paramsMiddleware))

	s.Router.Handle("GET /matches/{matchID}", Chain(s.GetMatchHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{matchID}/votes", Chain(s.ListVotesHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/votes", Chain(s.CastVoteHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/confirm", Chain(s.ConfirmMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/cancel", Chain(s.CancelMatchHandler(), paramsMiddleware))

	s.Router.Handle("GET /guilds/{guildID}/players/{playerID}", Chain(s.GetRatingHandler(), paramsMiddleware))
	s.Router.Handle("POST /guilds/{guildID}/players/{playerID}", Chain(s.InitializePlayerHandler(), paramsMiddleware))
	s.Router.Handle("DELETE /guilds/{guildID}/players/{playerID}", Chain(s.ResetPlayerHandler(), paramsMiddleware))
	s.Router.Handle("GET /guilds/{guildID}/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("GET /guilds/{guildID}/settings", Chain(s.GetGuildSettingsHandler(), paramsMiddleware))
	s.Router.Handle("PUT /guilds/{guildID}/settings", Chain(s.UpdateGuildSettingsHandler(), paramsMiddleware))

	if s.SlackSigningSecret != "" {
		verify := slackVerifyMiddleware(s.SlackSigningSecret)
		s.Router.Handle("POST /slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware, verify))
		s.Router.Handle("POST /slack/command/rating", Chain(s.RatingCommandHandler(), paramsMiddleware, verify))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
