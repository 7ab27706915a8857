package match

import "fmt"

// Status is the lifecycle state of a match. Voting is the only non-terminal state.
type Status string

const (
	StatusVoting    Status = "voting"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus converts a stored status string, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusVoting, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusVoting:
		return false
	case StatusConfirmed, StatusCancelled:
		return true
	}
	return true
}

// Transition validates moving from s to next.
func (s Status) Transition(next Status) error {
	switch s {
	case StatusVoting:
		switch next {
		case StatusConfirmed, StatusCancelled:
			return nil
		}
	case StatusConfirmed, StatusCancelled:
	}
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, s, next)
}

// RequireVoting fails with ErrInvalidState unless the match is still open.
func (s Status) RequireVoting() error {
	if s != StatusVoting {
		return fmt.Errorf("%w: match is %s", ErrInvalidState, s)
	}
	return nil
}

// Threshold is the strict majority of n participants.
func Threshold(participants int) int {
	return participants/2 + 1
}

// Count returns the votes recorded for c.
func (t Tally) Count(c Choice) int {
	switch c {
	case ChoiceBlue:
		return t.Blue
	case ChoiceRed:
		return t.Red
	case ChoiceDraw:
		return t.Draw
	}
	return 0
}

// Total is the number of votes cast.
func (t Tally) Total() int {
	return t.Blue + t.Red + t.Draw
}

// Add returns t with delta added to c's count.
func (t Tally) Add(c Choice, delta int) Tally {
	switch c {
	case ChoiceBlue:
		t.Blue += delta
	case ChoiceRed:
		t.Red += delta
	case ChoiceDraw:
		t.Draw += delta
	}
	return t
}

// Decide returns the first option whose count reaches the majority threshold.
func (t Tally) Decide(participants int) (Choice, bool) {
	need := Threshold(participants)
	for _, c := range Choices {
		if t.Count(c) >= need {
			return c, true
		}
	}
	return "", false
}

// VoteChange describes how a cast moves the tally.
type VoteChange struct {
	Changed  bool
	Previous *Choice
	Next     Choice
}

// Deltas returns the per-option increments a change applies. A repeated vote
// yields none; a switched vote moves one count from Previous to Next.
func (v VoteChange) Deltas() map[Choice]int {
	deltas := make(map[Choice]int, 2)
	if !v.Changed {
		return deltas
	}
	if v.Previous != nil {
		deltas[*v.Previous]--
	}
	deltas[v.Next]++
	return deltas
}

// PlanVote validates a cast against the match and the player's previous vote.
func PlanVote(m *Match, playerID string, previous *Choice, next Choice) (VoteChange, error) {
	if err := m.Status.RequireVoting(); err != nil {
		return VoteChange{}, err
	}
	if _, ok := m.Assignments[playerID]; !ok {
		return VoteChange{}, fmt.Errorf("%w: %s", ErrForbidden, playerID)
	}
	if previous != nil && *previous == next {
		return VoteChange{Changed: false, Previous: previous, Next: next}, nil
	}
	return VoteChange{Changed: true, Previous: previous, Next: next}, nil
}

// Apply returns the tally after the change.
func (t Tally) Apply(v VoteChange) Tally {
	for c, d := range v.Deltas() {
		t = t.Add(c, d)
	}
	return t
}
