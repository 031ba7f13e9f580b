package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Poster is the subset of the Slack API the notifier needs.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a brief summary to a channel.
type SlackNotifier struct {
	api     Poster
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier posting with a bot token.
func NewSlackNotifier(botToken, channel string, logger zerolog.Logger) *SlackNotifier {
	return NewSlackNotifierWithAPI(slack.New(botToken), channel, logger)
}

// NewSlackNotifierWithAPI creates a notifier over an existing client.
func NewSlackNotifierWithAPI(api Poster, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:     api,
		channel: channel,
		logger:  logger.With().Str("component", "notify.slack").Logger(),
	}
}

func (s *SlackNotifier) NotifyProposal(ctx context.Context, p Proposal) error {
	_, ts, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(fallbackText(p), false),
		slack.MsgOptionBlocks(ProposalBlocks(p)...),
	)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	s.logger.Info().Str("channel", s.channel).Str("ts", ts).Str("approval_id", p.ApprovalID).Msg("proposal notification sent")
	return nil
}

func fallbackText(p Proposal) string {
	who := p.Brief.CompanyName
	if who == "" {
		who = p.Brief.ClientName
	}
	if who == "" {
		who = p.User
	}
	return fmt.Sprintf("New %s proposal for %s", p.Service, who)
}

// ProposalBlocks renders a proposal notification as Slack blocks.
func ProposalBlocks(p Proposal) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject("plain_text", "📄 "+fallbackText(p), false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*User:* %s\n*Approval:* `%s`", p.User, p.ApprovalID), false, false),
			nil, nil,
		),
		slack.NewDividerBlock(),
	}
	if summary := p.Brief.Summary(); summary != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", truncate(summary, 2900), false, false),
			nil, nil,
		))
	}
	return blocks
}

// truncate keeps section text under Slack's 3000 character limit.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
