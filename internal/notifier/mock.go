package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/settlement"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendMatchFormedFunc    func(m *match.Match) error
	SendMatchConfirmedFunc func(m *match.Match, changes []settlement.Change) error
	SendMatchCancelledFunc func(m *match.Match) error

	// Call records
	SendMatchFormedCalls    []*match.Match
	SendMatchConfirmedCalls []struct {
		Match   *match.Match
		Changes []settlement.Change
	}
	SendMatchCancelledCalls []*match.Match
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchFormedCalls = nil
	m.SendMatchConfirmedCalls = nil
	m.SendMatchCancelledCalls = nil
}

func (m *Mock) SendMatchFormed(_ context.Context, mt *match.Match, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchFormedCalls = append(m.SendMatchFormedCalls, mt)
	if m.SendMatchFormedFunc != nil {
		return m.SendMatchFormedFunc(mt)
	}
	return nil
}

func (m *Mock) SendMatchConfirmed(_ context.Context, mt *match.Match, changes []settlement.Change, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchConfirmedCalls = append(m.SendMatchConfirmedCalls, struct {
		Match   *match.Match
		Changes []settlement.Change
	}{mt, changes})
	if m.SendMatchConfirmedFunc != nil {
		return m.SendMatchConfirmedFunc(mt, changes)
	}
	return nil
}

func (m *Mock) SendMatchCancelled(_ context.Context, mt *match.Match, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchCancelledCalls = append(m.SendMatchCancelledCalls, mt)
	if m.SendMatchCancelledFunc != nil {
		return m.SendMatchCancelledFunc(mt)
	}
	return nil
}

// Counts returns how many formed, confirmed and cancelled notifications were sent.
func (m *Mock) Counts() (formed, confirmed, cancelled int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendMatchFormedCalls), len(m.SendMatchConfirmedCalls), len(m.SendMatchCancelledCalls)
}
