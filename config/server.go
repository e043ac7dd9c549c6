package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

const DefaultAPIVersion = "7.0"

// ServerConfig describes how to reach the TFS/Azure DevOps collection
type ServerConfig struct {
	// Collection URI, e.g. https://dev.azure.com/myorg
	URI         string `json:"uri" yaml:"uri" toml:"uri"`
	ProjectName string `json:"project_name" yaml:"project_name" toml:"project_name"`

	// PAT used for basic auth with an empty user name
	PersonalAccessToken string `json:"personal_access_token,omitempty" yaml:"personal_access_token,omitempty" toml:"personal_access_token,omitempty"`
	APIVersion          string `json:"api_version,omitempty" yaml:"api_version,omitempty" toml:"api_version,omitempty"`

	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: per-request timeout in seconds
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`             // optional: attempts per request (1 = no retry)
	MaxRPS         int `json:"max_rps,omitempty" yaml:"max_rps,omitempty" toml:"max_rps,omitempty"`                         // optional: request rate cap, 0 means no limit
}

// Validate checks the required connection settings
func (sc *ServerConfig) Validate() error {
	if strings.TrimSpace(sc.URI) == "" {
		return fmt.Errorf("server uri is required: %w", model.ErrInvalidArgument)
	}
	u, err := url.Parse(sc.URI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server uri %q is not an absolute URL: %w", sc.URI, model.ErrInvalidArgument)
	}
	if strings.TrimSpace(sc.ProjectName) == "" {
		return fmt.Errorf("project name is required: %w", model.ErrInvalidArgument)
	}
	if sc.PersonalAccessToken == "" {
		return fmt.Errorf("personal access token is required: %w", model.ErrInvalidArgument)
	}
	if sc.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative: %w", model.ErrInvalidArgument)
	}
	if sc.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative: %w", model.ErrInvalidArgument)
	}
	if sc.MaxRPS < 0 {
		return fmt.Errorf("max_rps cannot be negative: %w", model.ErrInvalidArgument)
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (sc *ServerConfig) ApplyDefaults() {
	sc.URI = strings.TrimRight(strings.TrimSpace(sc.URI), "/")
	if sc.APIVersion == "" {
		sc.APIVersion = DefaultAPIVersion
	}
	if sc.TimeoutSeconds <= 0 {
		sc.TimeoutSeconds = 30
	}
	if sc.MaxRetries <= 0 {
		sc.MaxRetries = 3
	}
	// MaxRPS leave 0 (means no limit)
}
