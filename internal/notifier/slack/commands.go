package slack

import (
	"fmt"

	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/slack-go/slack"
)

// FormatLeaderboard creates a Slack message to display a guild's ladder.
func FormatLeaderboard(guildID string, rows []rating.PlayerRating) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Ladder Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(rows) == 0 {
		text := fmt.Sprintf("No rated players in %s yet. Go play some matches!", guildID)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, r := range rows {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s %s\n> *Rating*: %d | W/L/D: %d/%d/%d",
			rank,
			medal,
			r.PlayerID,
			r.Rating,
			r.Wins,
			r.Losses,
			r.Draws,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// FormatRating creates a Slack message to display a single player's rating.
func FormatRating(r *rating.PlayerRating, placementThreshold int) slack.Message {
	headerText := fmt.Sprintf("Rating for %s", r.PlayerID)

	text := fmt.Sprintf("> *Rating*: %d (peak %d)\n> *W/L/D*: %d/%d/%d", r.Rating, r.PeakRating, r.Wins, r.Losses, r.Draws)
	if r.PlacementGames < placementThreshold {
		text += fmt.Sprintf("\n> *Placement*: %d/%d games", r.PlacementGames, placementThreshold)
	}
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}

// FormatPlayerNotFound creates a Slack message for a player without a rating.
func FormatPlayerNotFound(playerID string) slack.Message {
	text := fmt.Sprintf("Sorry, *%s* has no rating yet. Ratings are created by their first confirmed match.", playerID)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}
