// Package journal keeps an append-only local record of deleted test cases.
package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

type Journal interface {
	RecordDeleted(entries ...model.DeletedTestCase) error
	Get(projectID uuid.UUID, id int) (*model.DeletedTestCase, error)
	// List returns every entry ordered by project, then by id
	List() ([]model.DeletedTestCase, error)
	ListProject(projectID uuid.UUID) ([]model.DeletedTestCase, error)
	Count() (int64, error)
	Close() error
}

var (
	ErrEntryNotFound  error = errors.New("journal entry not found")
	ErrBucketNotFound error = errors.New("bucket not found")
)

// Open returns the bbolt journal, or a NoOpJournal when no path is configured
func Open(cfg *config.JournalConfig) (Journal, error) {
	if cfg == nil || !cfg.Enabled() {
		return NewNoOpJournal(), nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal configuration: %w", err)
	}
	return NewBboltJournal(cfg)
}

// NoOpJournal discards entries
type NoOpJournal struct{}

func NewNoOpJournal() *NoOpJournal {
	return &NoOpJournal{}
}

func (n *NoOpJournal) RecordDeleted(entries ...model.DeletedTestCase) error { return nil }
func (n *NoOpJournal) List() ([]model.DeletedTestCase, error)               { return nil, nil }
func (n *NoOpJournal) Count() (int64, error)                                { return 0, nil }
func (n *NoOpJournal) Close() error                                         { return nil }

func (n *NoOpJournal) Get(projectID uuid.UUID, id int) (*model.DeletedTestCase, error) {
	return nil, ErrEntryNotFound
}

func (n *NoOpJournal) ListProject(projectID uuid.UUID) ([]model.DeletedTestCase, error) {
	return nil, nil
}
