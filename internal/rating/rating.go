package rating

import (
	"errors"
	"math"
)

// ExpectedScore returns the probability that a player rated myRating beats an
// opponent rated opponentRating, on the standard base-10 / 400 logistic curve.
func ExpectedScore(myRating, opponentRating int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponentRating-myRating)/400.0))
}

// InPlacement reports whether a player with the given number of confirmed
// matches is still playing placement games.
func (s Settings) InPlacement(placementGames int) bool {
	return placementGames < s.PlacementThreshold
}

// KFactor returns the rating swing cap for the player's placement status.
func (s Settings) KFactor(isPlacement bool) int {
	if isPlacement {
		return s.KPlacement
	}
	return s.KNormal
}

// NewRating applies a single win or loss against opponentAverage and returns
// the rounded result, never below zero.
func (s Settings) NewRating(current, opponentAverage int, won, isPlacement bool) int {
	actual := 0.0
	if won {
		actual = 1.0
	}
	k := float64(s.KFactor(isPlacement))
	delta := k * (actual - ExpectedScore(current, opponentAverage))

	next := int(math.Round(float64(current) + delta))
	if next < 0 {
		return 0
	}
	return next
}

// TeamAverage returns the rounded mean of ratings, or the initial rating when
// the list is empty.
func (s Settings) TeamAverage(ratings []int) int {
	if len(ratings) == 0 {
		return s.InitialRating
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

// Validate rejects settings the calculator cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.InitialRating < 0:
		return errors.New("initial rating must not be negative")
	case s.KNormal <= 0:
		return errors.New("normal K-factor must be positive")
	case s.KPlacement <= 0:
		return errors.New("placement K-factor must be positive")
	case s.PlacementThreshold < 0:
		return errors.New("placement threshold must not be negative")
	}
	return nil
}
