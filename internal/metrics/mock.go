package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                    sync.Mutex
	queueJoins            int
	matchesFormed         int
	votesCast             int
	matchesConfirmed      int
	matchesCancelled      int
	confirmationDurations []float64
	notifSent             int
	notifFailed           int
	startupTime           float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		confirmationDurations: make([]float64, 0),
	}
}

var _ Metrics = (*Mock)(nil)

func (m *Mock) IncQueueJoins() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueJoins++
}

func (m *Mock) IncMatchesFormed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesFormed++
}

func (m *Mock) IncVotesCast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votesCast++
}

func (m *Mock) IncMatchesConfirmed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesConfirmed++
}

func (m *Mock) IncMatchesCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCancelled++
}

func (m *Mock) ObserveConfirmationDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmationDurations = append(m.confirmationDurations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// QueueJoins returns the number of times IncQueueJoins was called.
func (m *Mock) QueueJoins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueJoins
}

// MatchesFormed returns the number of times IncMatchesFormed was called.
func (m *Mock) MatchesFormed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesFormed
}

// VotesCast returns the number of times IncVotesCast was called.
func (m *Mock) VotesCast() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votesCast
}

// MatchesConfirmed returns the number of times IncMatchesConfirmed was called.
func (m *Mock) MatchesConfirmed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesConfirmed
}

// MatchesCancelled returns the number of times IncMatchesCancelled was called.
func (m *Mock) MatchesCancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCancelled
}

// ConfirmationDurations returns every observed confirmation duration.
func (m *Mock) ConfirmationDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.confirmationDurations...)
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}
