package config

import (
	"fmt"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// NotifyConfig holds the optional Slack summary settings.
// Notification is disabled unless both token and channel are set.
type NotifyConfig struct {
	SlackToken   string `json:"slack_token,omitempty" yaml:"slack_token,omitempty" toml:"slack_token,omitempty"`
	SlackChannel string `json:"slack_channel,omitempty" yaml:"slack_channel,omitempty" toml:"slack_channel,omitempty"`
	SlackAPIURL  string `json:"slack_api_url,omitempty" yaml:"slack_api_url,omitempty" toml:"slack_api_url,omitempty"` // Override for Slack-compatible gateways
}

func (nc *NotifyConfig) Enabled() bool {
	return nc.SlackToken != "" && nc.SlackChannel != ""
}

func (nc *NotifyConfig) Validate() error {
	if (nc.SlackToken == "") != (nc.SlackChannel == "") {
		return fmt.Errorf("slack_token and slack_channel must be set together: %w", model.ErrInvalidArgument)
	}
	return nil
}
