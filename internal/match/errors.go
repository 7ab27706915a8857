package match

import "errors"

// Sentinel errors for match, queue and vote operations. Callers classify
// with errors.Is; wrapped persistence errors are none of these.
var (
	// ErrNotFound indicates the match, queue or participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates the match is not in the lifecycle state the
	// operation requires.
	ErrInvalidState = errors.New("invalid match state")

	// ErrForbidden indicates the actor is not a participant of the match.
	ErrForbidden = errors.New("player is not a participant of this match")

	// ErrInsufficientVotes indicates no option has reached the majority threshold.
	ErrInsufficientVotes = errors.New("not enough votes")

	// ErrCapacityExceeded indicates the queue is already full.
	ErrCapacityExceeded = errors.New("queue is full")

	// ErrAlreadyJoined indicates the player already holds a queue slot.
	ErrAlreadyJoined = errors.New("player already in queue")

	// ErrInvalidChoice indicates a vote value outside BLUE, RED and DRAW.
	ErrInvalidChoice = errors.New("invalid vote choice")

	// ErrInvalidInput indicates a malformed request such as bad settings.
	ErrInvalidInput = errors.New("invalid input")
)
