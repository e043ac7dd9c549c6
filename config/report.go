package config

import (
	"fmt"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// DestinationType represents where the JSON cleanup report is uploaded
type DestinationType string

const (
	DestinationTypeNone DestinationType = "none"
	DestinationTypeFTP  DestinationType = "ftp"
	DestinationTypeS3   DestinationType = "s3"
)

// ReportConfig holds the configuration for the report destination
type ReportConfig struct {
	DestinationType DestinationType `json:"type" yaml:"type" toml:"type"`

	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: upload timeout in seconds
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`             // optional: upload attempts

	// Type-specific configurations
	FTP *FTPConfig `json:"ftp,omitempty" yaml:"ftp,omitempty" toml:"ftp,omitempty"`
	S3  *S3Config  `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
}

// FTPConfig holds FTP-specific configuration
type FTPConfig struct {
	Host     string `json:"host" yaml:"host" toml:"host"`                                           // FTP server host
	Port     int    `json:"port" yaml:"port" toml:"port"`                                           // FTP server port (default: 21)
	Username string `json:"username" yaml:"username" toml:"username"`                               // FTP username
	Password string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"` // FTP password
	BasePath string `json:"base_path,omitempty" yaml:"base_path,omitempty" toml:"base_path"`        // Directory reports are written under
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string `json:"region" yaml:"region" toml:"region"`
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`                            // For S3-compatible services
}

// Validate ensures the configuration is valid for the specified destination type
func (rc *ReportConfig) Validate() error {
	if rc.TimeoutSeconds < 0 {
		return fmt.Errorf("report timeout_seconds cannot be negative: %w", model.ErrInvalidArgument)
	}
	if rc.MaxRetries < 0 {
		return fmt.Errorf("report max_retries cannot be negative: %w", model.ErrInvalidArgument)
	}

	switch rc.DestinationType {
	case "", DestinationTypeNone:
		return nil
	case DestinationTypeFTP:
		if rc.FTP == nil {
			return fmt.Errorf("ftp configuration is required when type is 'ftp': %w", model.ErrInvalidArgument)
		}
		return rc.FTP.Validate()
	case DestinationTypeS3:
		if rc.S3 == nil {
			return fmt.Errorf("s3 configuration is required when type is 's3': %w", model.ErrInvalidArgument)
		}
		return rc.S3.Validate()
	default:
		return fmt.Errorf("unsupported report destination type: %s: %w", rc.DestinationType, model.ErrInvalidArgument)
	}
}

// Validate validates FTP configuration
func (fc *FTPConfig) Validate() error {
	if fc.Host == "" {
		return fmt.Errorf("ftp host is required: %w", model.ErrInvalidArgument)
	}
	if fc.Port <= 0 || fc.Port > 65535 {
		return fmt.Errorf("ftp port must be between 1 and 65535: %w", model.ErrInvalidArgument)
	}
	if fc.Username == "" {
		return fmt.Errorf("ftp username is required: %w", model.ErrInvalidArgument)
	}
	// Password can be empty for anonymous FTP
	return nil
}

// Validate validates S3 configuration
func (s3c *S3Config) Validate() error {
	if s3c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required: %w", model.ErrInvalidArgument)
	}
	if s3c.AccessKeyID == "" {
		return fmt.Errorf("s3 access key is required: %w", model.ErrInvalidArgument)
	}
	if s3c.SecretAccessKey == "" {
		return fmt.Errorf("s3 secret key is required: %w", model.ErrInvalidArgument)
	}
	return nil
}

// ApplyDefaults sets default values for report configuration
func (rc *ReportConfig) ApplyDefaults() {
	if rc.DestinationType == "" {
		rc.DestinationType = DestinationTypeNone
	}
	if rc.TimeoutSeconds <= 0 {
		rc.TimeoutSeconds = 30
	}
	if rc.MaxRetries <= 0 {
		rc.MaxRetries = 3
	}
	if rc.FTP != nil {
		rc.FTP.ApplyDefaults()
	}
	if rc.S3 != nil && rc.S3.Region == "" {
		// S3-compatible storage often ignores the region but the SDK requires one
		rc.S3.Region = "us-east-1"
	}
}

// ApplyDefaults sets default values for FTP configuration
func (fc *FTPConfig) ApplyDefaults() {
	if fc.Port == 0 {
		fc.Port = 21
	}
	if fc.BasePath == "" {
		fc.BasePath = "/"
	}
}
