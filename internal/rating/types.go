package rating

import "time"

const (
	DefaultInitialRating      = 1200
	DefaultKNormal            = 32
	DefaultKPlacement         = 64
	DefaultPlacementThreshold = 5
)

// Settings holds the per-guild constants the calculator depends on.
type Settings struct {
	InitialRating      int `json:"initial_rating"`
	KNormal            int `json:"k_normal"`
	KPlacement         int `json:"k_placement"`
	PlacementThreshold int `json:"placement_threshold"`
}

// DefaultSettings returns the stock ladder constants.
func DefaultSettings() Settings {
	return Settings{
		InitialRating:      DefaultInitialRating,
		KNormal:            DefaultKNormal,
		KPlacement:         DefaultKPlacement,
		PlacementThreshold: DefaultPlacementThreshold,
	}
}

// PlayerRating is a player's standing within one guild.
type PlayerRating struct {
	GuildID        string    `json:"guild_id"`
	PlayerID       string    `json:"player_id"`
	Rating         int       `json:"rating"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	Draws          int       `json:"draws"`
	PlacementGames int       `json:"placement_games"`
	PeakRating     int       `json:"peak_rating"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPlayer returns a fresh rating row at the initial rating.
func (s Settings) NewPlayer(guildID, playerID string, now time.Time) PlayerRating {
	return PlayerRating{
		GuildID:    guildID,
		PlayerID:   playerID,
		Rating:     s.InitialRating,
		PeakRating: s.InitialRating,
		UpdatedAt:  now,
	}
}
