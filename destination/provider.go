// Package destination uploads cleanup reports to remote storage.
package destination

import (
	"context"
	"fmt"
	"io"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
)

type DestinationProvider interface {
	Upload(ctx context.Context, path string, content io.Reader) error
	Close() error
}

// CreateDestination creates a destination provider based on configuration.
// DestinationTypeNone yields a NoOpDestination.
func CreateDestination(ctx context.Context, cfg *config.ReportConfig) (DestinationProvider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid destination configuration: %w", err)
	}

	switch cfg.DestinationType {
	case config.DestinationTypeNone:
		return NewNoOpDestination(), nil
	case config.DestinationTypeFTP:
		return NewFTPDestination(cfg.FTP, cfg)
	case config.DestinationTypeS3:
		return NewS3Destination(ctx, cfg.S3, cfg)
	default:
		return nil, fmt.Errorf("unsupported destination type: %s", cfg.DestinationType)
	}
}

// NoOpDestination accepts and discards uploads
type NoOpDestination struct{}

func NewNoOpDestination() *NoOpDestination {
	return &NoOpDestination{}
}

func (n *NoOpDestination) Upload(ctx context.Context, path string, content io.Reader) error {
	return nil
}

func (n *NoOpDestination) Close() error { return nil }
