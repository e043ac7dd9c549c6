package config

import (
	"fmt"
	"os"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// JournalConfig holds the bbolt deletion journal settings.
// An empty Path disables the journal.
type JournalConfig struct {
	Path   string      `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`          // Path to bbolt DB file
	Bucket string      `json:"bucket,omitempty" yaml:"bucket,omitempty" toml:"bucket,omitempty"`    // Name of the bucket
	Mode   os.FileMode `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`          // File open mode: "0600", "0644"
	NoSync bool        `json:"no_sync,omitempty" yaml:"no_sync,omitempty" toml:"no_sync,omitempty"` // Disable fsync
}

func (jc *JournalConfig) Enabled() bool {
	return jc.Path != ""
}

func (jc *JournalConfig) Validate() error {
	if !jc.Enabled() {
		return nil
	}
	if jc.Bucket == "" {
		return fmt.Errorf("journal bucket is required: %w", model.ErrInvalidArgument)
	}
	return nil
}

// ApplyDefaults sets default values if not provided
func (jc *JournalConfig) ApplyDefaults() {
	if jc.Bucket == "" {
		jc.Bucket = "deleted_test_cases"
	}
	if jc.Mode == 0 {
		jc.Mode = 0600
	}
	// NoSync remains false by default: the journal is the only record of what was deleted
}
