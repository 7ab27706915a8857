package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		QueueJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_queue_joins_total",
			Help: "The total number of successful queue joins.",
		}),
		MatchesFormed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_formed_total",
			Help: "The total number of matches formed from a queue.",
		}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_votes_cast_total",
			Help: "The total number of votes that changed a match tally.",
		}),
		MatchesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_confirmed_total",
			Help: "The total number of matches confirmed and rated.",
		}),
		MatchesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_cancelled_total",
			Help: "The total number of matches cancelled.",
		}),
		ConfirmationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ladder_confirmation_duration_seconds",
			Help:    "The duration of match confirmation including the rating transaction.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ladder_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.QueueJoins,
		s.MatchesFormed,
		s.VotesCast,
		s.MatchesConfirmed,
		s.MatchesCancelled,
		s.ConfirmationDuration,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncQueueJoins() {
	s.QueueJoins.Inc()
}

func (s *Service) IncMatchesFormed() {
	s.MatchesFormed.Inc()
}

func (s *Service) IncVotesCast() {
	s.VotesCast.Inc()
}

func (s *Service) IncMatchesConfirmed() {
	s.MatchesConfirmed.Inc()
}

func (s *Service) IncMatchesCancelled() {
	s.MatchesCancelled.Inc()
}

func (s *Service) ObserveConfirmationDuration(duration float64) {
	s.ConfirmationDuration.Observe(duration)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
