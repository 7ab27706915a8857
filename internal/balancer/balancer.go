// Package balancer splits a pool of rated players into two teams and assigns
// each player a role.
package balancer

import (
	"cmp"
	"slices"

	"github.com/mauv0809/rift-ladder/internal/match"
)

// FallbackRole is given to players left over once a team has used every role.
const FallbackRole = match.RoleSupport

// Player is a queued player as seen by the balancer.
type Player struct {
	ID       string
	Rating   int
	MainRole match.Role
	SubRole  match.Role
}

// Balance snake-drafts players into BLUE and RED by descending rating and
// then assigns roles within each team. The input slice is not modified.
// Players with equal rating keep their input order.
func Balance(players []Player) match.Assignments {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b Player) int {
		return cmp.Compare(b.Rating, a.Rating)
	})

	var blue, red []Player
	for i, p := range sorted {
		if draftTeam(i) == match.TeamBlue {
			blue = append(blue, p)
		} else {
			red = append(red, p)
		}
	}

	assignments := make(match.Assignments, len(sorted))
	for team, members := range map[match.Team][]Player{match.TeamBlue: blue, match.TeamRed: red} {
		roles := assignRoles(members)
		for i, p := range members {
			assignments[p.ID] = match.Assignment{
				Team:              team,
				Role:              roles[i],
				RatingAtFormation: p.Rating,
			}
		}
	}
	return assignments
}

// draftTeam returns the team receiving the player at the given rank. Ranks are
// taken in rounds of two and the pick order flips every round.
func draftTeam(rank int) match.Team {
	round, pick := rank/2, rank%2
	first := match.TeamBlue
	if round%2 == 1 {
		first = match.TeamRed
	}
	if pick == 0 {
		return first
	}
	return first.Opponent()
}

// roleSlots tracks which roles one team has handed out.
type roleSlots struct {
	used map[match.Role]bool
}

func newRoleSlots() *roleSlots {
	return &roleSlots{used: make(map[match.Role]bool, len(match.Roles))}
}

// claim takes r if it is a concrete role nobody on the team holds yet.
func (s *roleSlots) claim(r match.Role) bool {
	if !r.Concrete() || s.used[r] {
		return false
	}
	s.used[r] = true
	return true
}

// next takes the first free role in fixed order, or the fallback when none remain.
func (s *roleSlots) next() match.Role {
	for _, r := range match.Roles {
		if s.claim(r) {
			return r
		}
	}
	return FallbackRole
}

// assignRoles runs main, sub and fill passes over a team in rating order.
// The result is indexed like team.
func assignRoles(team []Player) []match.Role {
	slots := newRoleSlots()
	roles := make([]match.Role, len(team))

	for i, p := range team {
		if slots.claim(p.MainRole) {
			roles[i] = p.MainRole
		}
	}
	for i, p := range team {
		if roles[i] == "" && slots.claim(p.SubRole) {
			roles[i] = p.SubRole
		}
	}
	for i := range team {
		if roles[i] == "" {
			roles[i] = slots.next()
		}
	}
	return roles
}
