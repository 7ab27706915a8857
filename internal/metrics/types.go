package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	QueueJoins           prometheus.Counter
	MatchesFormed        prometheus.Counter
	VotesCast            prometheus.Counter
	MatchesConfirmed     prometheus.Counter
	MatchesCancelled     prometheus.Counter
	ConfirmationDuration prometheus.Histogram
	NotifSent            prometheus.Counter
	NotifFailed          prometheus.Counter
	StartupTimeSeconds   prometheus.Gauge
}
