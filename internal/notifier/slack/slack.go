package slack

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/metrics"
	"github.com/mauv0809/rift-ladder/internal/notifier"
	"github.com/mauv0809/rift-ladder/internal/settlement"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts ladder events to a Slack ops channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendMatchFormed(ctx context.Context, m *match.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchFormed(m), dryRun)
	return err
}

func (s *Notifier) SendMatchConfirmed(ctx context.Context, m *match.Match, changes []settlement.Change, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchConfirmed(m, changes), dryRun)
	return err
}

func (s *Notifier) SendMatchCancelled(ctx context.Context, m *match.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchCancelled(m), dryRun)
	return err
}

// roster returns a team's players in role order.
func roster(m *match.Match, team match.Team) []string {
	type slot struct {
		id string
		a  match.Assignment
	}
	var slots []slot
	for id, a := range m.Assignments {
		if a.Team == team {
			slots = append(slots, slot{id, a})
		}
	}
	roleRank := func(r match.Role) int {
		if i := slices.Index(match.Roles, r); i >= 0 {
			return i
		}
		return len(match.Roles)
	}
	slices.SortFunc(slots, func(x, y slot) int {
		return cmp.Or(cmp.Compare(roleRank(x.a.Role), roleRank(y.a.Role)), strings.Compare(x.id, y.id))
	})

	lines := make([]string, 0, len(slots))
	for _, sl := range slots {
		lines = append(lines, fmt.Sprintf("• %s: %s (%d)", sl.a.Role, sl.id, sl.a.RatingAtFormation))
	}
	return lines
}

// formatMatchFormed creates the Slack message for a newly formed match using Block Kit.
func (s *Notifier) formatMatchFormed(m *match.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚔️ Match formed! ⚔️", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var fields []*slack.TextBlockObject
	for _, team := range []match.Team{match.TeamBlue, match.TeamRed} {
		text := fmt.Sprintf("%s\n%s", team, strings.Join(roster(m, team), "\n"))
		fields = append(fields, slack.NewTextBlockObject("plain_text", text, true, false))
	}
	summary := fmt.Sprintf("%d players, %d votes needed to confirm", len(m.Assignments), match.Threshold(len(m.Assignments)))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", summary, true, false), fields, nil))

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("plain_text", "Match "+m.ID, true, false),
	))
	return slack.NewBlockMessage(blocks...)
}

// formatMatchConfirmed creates the Slack message for a rated match using Block Kit.
func (s *Notifier) formatMatchConfirmed(m *match.Match, changes []settlement.Change) slack.Message {
	blocks := make([]slack.Block, 0)

	title := "🤝 Match drawn 🤝"
	if m.Winner != nil {
		if team, ok := m.Winner.Team(); ok {
			title = fmt.Sprintf("🏆 %s wins! 🏆", team)
		}
	}
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", title, true, false)))

	var lines []string
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("• %s %s: %d → %d (%+d)", c.Team, c.PlayerID, c.RatingBefore, c.RatingAfter, c.Change))
	}
	if len(lines) > 0 {
		text := "Rating changes:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil))
	}

	tally := fmt.Sprintf("Votes: BLUE %d / RED %d / DRAW %d", m.Tally.Blue, m.Tally.Red, m.Tally.Draw)
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("plain_text", tally, true, false),
		slack.NewTextBlockObject("plain_text", "Match "+m.ID, true, false),
	))
	return slack.NewBlockMessage(blocks...)
}

// formatMatchCancelled creates the Slack message for a cancelled match.
func (s *Notifier) formatMatchCancelled(m *match.Match) slack.Message {
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "Match cancelled", true, false))
	ctx := slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Match "+m.ID, true, false))
	return slack.NewBlockMessage(header, ctx)
}
