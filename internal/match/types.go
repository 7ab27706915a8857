package match

import (
	"strings"
	"time"
)

// Team is one side of a match.
type Team string

const (
	TeamBlue Team = "BLUE"
	TeamRed  Team = "RED"
)

// Opponent returns the other side.
func (t Team) Opponent() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

// Role is a lane/position preference. RoleFill means no preference.
type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JUNGLE"
	RoleMid     Role = "MID"
	RoleADC     Role = "ADC"
	RoleSupport Role = "SUPPORT"
	RoleFill    Role = "FILL"
)

// Roles is the fixed role set in assignment order.
var Roles = []Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}

// ParseRole maps user input onto a role. Anything unrecognised is FILL.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP":
		return RoleTop
	case "JUNGLE", "JG", "JGL":
		return RoleJungle
	case "MID", "MIDDLE":
		return RoleMid
	case "ADC", "BOT", "BOTTOM":
		return RoleADC
	case "SUPPORT", "SUP", "UTILITY":
		return RoleSupport
	default:
		return RoleFill
	}
}

// Concrete reports whether r names an actual position rather than FILL.
func (r Role) Concrete() bool {
	switch r {
	case RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport:
		return true
	}
	return false
}

// Choice is a vote value and also the outcome of a decided match.
type Choice string

const (
	ChoiceBlue Choice = "BLUE"
	ChoiceRed  Choice = "RED"
	ChoiceDraw Choice = "DRAW"
)

// Choices lists every vote option in the order majority is checked.
var Choices = []Choice{ChoiceBlue, ChoiceRed, ChoiceDraw}

// ParseChoice validates a vote value.
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToUpper(strings.TrimSpace(s))); c {
	case ChoiceBlue, ChoiceRed, ChoiceDraw:
		return c, nil
	}
	return "", ErrInvalidChoice
}

// Team returns the team a choice names. ok is false for a draw.
func (c Choice) Team() (Team, bool) {
	switch c {
	case ChoiceBlue:
		return TeamBlue, true
	case ChoiceRed:
		return TeamRed, true
	}
	return "", false
}

// Assignment is a participant's slot in a formed match. RatingAtFormation is
// frozen when the match is created and is what rating changes are computed from.
type Assignment struct {
	Team              Team `json:"team"`
	Role              Role `json:"role"`
	RatingAtFormation int  `json:"rating_at_formation"`
}

// Assignments maps player id to their slot.
type Assignments map[string]Assignment

// Tally counts votes per option.
type Tally struct {
	Blue int `json:"blue"`
	Red  int `json:"red"`
	Draw int `json:"draw"`
}

// Match is a formed match and its voting state.
type Match struct {
	ID          string      `json:"id"`
	GuildID     string      `json:"guild_id"`
	QueueID     string      `json:"queue_id,omitempty"`
	Status      Status      `json:"status"`
	Assignments Assignments `json:"assignments"`
	Tally       Tally       `json:"tally"`
	Winner      *Choice     `json:"winner,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
}

// Vote is one participant's current vote on a match.
type Vote struct {
	MatchID  string    `json:"match_id"`
	PlayerID string    `json:"player_id"`
	Choice   Choice    `json:"choice"`
	VotedAt  time.Time `json:"voted_at"`
}
