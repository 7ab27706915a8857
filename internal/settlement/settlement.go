// Package settlement turns a decided match into the rating changes and rating
// rows that confirming it writes.
package settlement

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/samber/lo"
)

// Change is one participant's rating movement.
type Change struct {
	PlayerID     string     `json:"player_id"`
	Team         match.Team `json:"team"`
	Role         match.Role `json:"role"`
	RatingBefore int        `json:"rating_before"`
	RatingAfter  int        `json:"rating_after"`
	Change       int        `json:"change"`
}

// Plan is the full write-set for a confirmation.
type Plan struct {
	MatchID string
	Winner  match.Choice
	// Changes is ordered by team (BLUE first) then player id.
	Changes []Change
	// Ratings holds the new rating row of every participant, created or updated.
	Ratings []rating.PlayerRating
}

// Settle computes the write-set for confirming m with the given outcome.
// existing holds the participants' current rating rows keyed by player id;
// players without one get a fresh row. Deltas are computed from each
// participant's rating at formation against the opposing team's average.
func Settle(m *match.Match, outcome match.Choice, existing map[string]rating.PlayerRating, s rating.Settings, now time.Time) (Plan, error) {
	if !slices.Contains(match.Choices, outcome) {
		return Plan{}, fmt.Errorf("%w: %q", match.ErrInvalidChoice, outcome)
	}
	if len(m.Assignments) == 0 {
		return Plan{}, fmt.Errorf("%w: match %s has no participants", match.ErrInvalidState, m.ID)
	}

	averages := map[match.Team]int{
		match.TeamBlue: s.TeamAverage(formationRatings(m.Assignments, match.TeamBlue)),
		match.TeamRed:  s.TeamAverage(formationRatings(m.Assignments, match.TeamRed)),
	}
	winner, decisive := outcome.Team()

	ids := lo.Keys(m.Assignments)
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(
			strings.Compare(string(m.Assignments[a].Team), string(m.Assignments[b].Team)),
			strings.Compare(a, b),
		)
	})

	plan := Plan{MatchID: m.ID, Winner: outcome}
	for _, id := range ids {
		a := m.Assignments[id]
		row, ok := existing[id]
		if !ok {
			row = s.NewPlayer(m.GuildID, id, now)
		}
		isPlacement := s.InPlacement(row.PlacementGames)

		delta := 0
		if decisive {
			won := a.Team == winner
			delta = s.NewRating(a.RatingAtFormation, averages[a.Team.Opponent()], won, isPlacement) - a.RatingAtFormation
		}

		before := row.Rating
		row.Rating = max(0, before+delta)
		row.PeakRating = max(row.PeakRating, row.Rating)
		if row.PlacementGames < s.PlacementThreshold {
			row.PlacementGames++
		}
		row.UpdatedAt = now
		switch {
		case !decisive:
			row.Draws++
		case a.Team == winner:
			row.Wins++
		default:
			row.Losses++
		}

		plan.Ratings = append(plan.Ratings, row)
		plan.Changes = append(plan.Changes, Change{
			PlayerID:     id,
			Team:         a.Team,
			Role:         a.Role,
			RatingBefore: before,
			RatingAfter:  row.Rating,
			Change:       row.Rating - before,
		})
	}
	return plan, nil
}

func formationRatings(assignments match.Assignments, team match.Team) []int {
	return lo.FilterMap(lo.Values(assignments), func(a match.Assignment, _ int) (int, bool) {
		return a.RatingAtFormation, a.Team == team
	})
}
