package config

import (
	"fmt"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// CleanupConfig controls the fetch and delete stages
type CleanupConfig struct {
	Delete        bool `json:"delete" yaml:"delete" toml:"delete"`                                                       // If false, matching test cases are only reported
	BatchSize     int  `json:"batch_size,omitempty" yaml:"batch_size,omitempty" toml:"batch_size,omitempty"`             // ids per details request
	FetchWorkers  int  `json:"fetch_workers,omitempty" yaml:"fetch_workers,omitempty" toml:"fetch_workers,omitempty"`    // optional: concurrent batch requests, 0 means one per batch
	DeleteWorkers int  `json:"delete_workers,omitempty" yaml:"delete_workers,omitempty" toml:"delete_workers,omitempty"` // optional: concurrent delete requests, 0 means one per item
}

func (cc *CleanupConfig) Validate() error {
	if cc.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d: %w", cc.BatchSize, model.ErrInvalidArgument)
	}
	if cc.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size cannot exceed %d, got %d: %w", MaxBatchSize, cc.BatchSize, model.ErrInvalidArgument)
	}
	if cc.FetchWorkers < 0 {
		return fmt.Errorf("fetch_workers cannot be negative: %w", model.ErrInvalidArgument)
	}
	if cc.DeleteWorkers < 0 {
		return fmt.Errorf("delete_workers cannot be negative: %w", model.ErrInvalidArgument)
	}
	return nil
}

// MaxBatchSize is the server-side limit on ids per work items request
const MaxBatchSize = 200
