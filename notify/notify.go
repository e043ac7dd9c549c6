// Package notify posts a run summary to chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/report"
)

// maxListedItems caps the test cases listed in one message
const maxListedItems = 20

type Notifier interface {
	Notify(ctx context.Context, result *model.CleanupResult, runErr error) error
}

// New returns a SlackNotifier, or a NoOpNotifier when Slack is not configured
func New(cfg *config.NotifyConfig) (Notifier, error) {
	if cfg == nil {
		return NewNoOpNotifier(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notify configuration: %w", err)
	}
	if !cfg.Enabled() {
		return NewNoOpNotifier(), nil
	}
	return NewSlackNotifier(cfg), nil
}

type SlackNotifier struct {
	api     *slack.Client
	channel string
}

func NewSlackNotifier(cfg *config.NotifyConfig) *SlackNotifier {
	var opts []slack.Option
	if cfg.SlackAPIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.SlackAPIURL))
	}
	return &SlackNotifier{
		api:     slack.New(cfg.SlackToken, opts...),
		channel: cfg.SlackChannel,
	}
}

// Notify posts the status line, the counts and the first matching test cases
func (n *SlackNotifier) Notify(ctx context.Context, result *model.CleanupResult, runErr error) error {
	status := report.Status(result, runErr)
	if result == nil {
		result = &model.CleanupResult{}
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fmt.Sprintf("Test case cleanup of %s: %s", projectName(result), status), false),
		slack.MsgOptionBlocks(blocks(result, status)...),
	)
	if err != nil {
		return fmt.Errorf("posting slack message to %s: %w", n.channel, err)
	}
	return nil
}

func blocks(result *model.CleanupResult, status string) []slack.Block {
	mode := "dry run"
	if result.Commit {
		mode = "delete"
	}

	out := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Test case cleanup: "+projectName(result), false, false),
		),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Mode*\n%s", mode), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Test cases*\n%d", result.Candidates), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Without steps*\n%d", result.Matching), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Deleted*\n%d", result.Deleted), false, false),
		}, nil),
	}

	if len(result.Items) > 0 {
		var sb strings.Builder
		for i, it := range result.Items {
			if i == maxListedItems {
				fmt.Fprintf(&sb, "_and %d more_\n", len(result.Items)-maxListedItems)
				break
			}
			fmt.Fprintf(&sb, "• [%d] %s\n", it.ID, it.Title)
		}
		out = append(out, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, sb.String(), false, false), nil, nil,
		))
	}

	out = append(out, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, status, false, false),
	))
	return out
}

func projectName(result *model.CleanupResult) string {
	if result.Project.Name == "" {
		return "unknown project"
	}
	return result.Project.Name
}

type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) Notify(ctx context.Context, result *model.CleanupResult, runErr error) error {
	return nil
}
