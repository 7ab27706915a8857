package ladder

import (
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/settlement"
	"github.com/mauv0809/rift-ladder/internal/store"
)

// QueueView is a queue and its entries in join order.
type QueueView struct {
	Queue   *store.Queue  `json:"queue"`
	Entries []store.Entry `json:"entries"`
}

// JoinResult is returned by JoinQueue. Match is set when the join filled the
// queue and formed a match.
type JoinResult struct {
	QueueView
	Match *match.Match `json:"match,omitempty"`
}

// VoteResult is the outcome of casting a vote.
type VoteResult struct {
	Changed           bool        `json:"changed"`
	Tally             match.Tally `json:"tally"`
	TotalParticipants int         `json:"total_participants"`
	VotesRequired     int         `json:"votes_required"`
	// Decided is true once some option has reached the majority threshold.
	Decided bool `json:"decided"`
}

// ConfirmResult is the outcome of confirming a match.
type ConfirmResult struct {
	MatchID       string              `json:"match_id"`
	Winner        match.Choice        `json:"winning_team"`
	RatingChanges []settlement.Change `json:"rating_changes"`
}

// MatchView is a match with its derived voting figures. RatingChanges is
// only set once the match is confirmed.
type MatchView struct {
	*match.Match
	VotesRequired int                 `json:"votes_required"`
	RatingChanges []settlement.Change `json:"rating_changes,omitempty"`
}
