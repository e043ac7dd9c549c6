package journal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

type BboltJournal struct {
	db     *bbolt.DB
	bucket string
}

// NewBboltJournal opens (or creates) the journal file described by cfg
func NewBboltJournal(cfg *config.JournalConfig) (*BboltJournal, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal config: %w", err)
	}

	db, err := bbolt.Open(cfg.Path, cfg.Mode, nil)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", cfg.Path, err)
	}
	db.NoSync = cfg.NoSync

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BboltJournal{
		db:     db,
		bucket: cfg.Bucket,
	}, nil
}

// entryKey sorts numerically within a project: <project id>/<zero-padded id>
func entryKey(projectID uuid.UUID, id int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", projectID, id))
}

func (j *BboltJournal) Close() error {
	return j.db.Close()
}

// RecordDeleted stores all entries in one transaction; re-recording an id overwrites it
func (j *BboltJournal) RecordDeleted(entries ...model.DeletedTestCase) error {
	if len(entries) == 0 {
		return nil
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(j.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		for _, entry := range entries {
			val, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := b.Put(entryKey(entry.ProjectID, entry.ID), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (j *BboltJournal) Get(projectID uuid.UUID, id int) (*model.DeletedTestCase, error) {
	var entry model.DeletedTestCase
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(j.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val := b.Get(entryKey(projectID, id))
		if val == nil {
			return ErrEntryNotFound
		}
		return json.Unmarshal(val, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (j *BboltJournal) List() ([]model.DeletedTestCase, error) {
	return j.listByPrefix("")
}

func (j *BboltJournal) ListProject(projectID uuid.UUID) ([]model.DeletedTestCase, error) {
	return j.listByPrefix(projectID.String() + "/")
}

func (j *BboltJournal) listByPrefix(prefix string) ([]model.DeletedTestCase, error) {
	var results []model.DeletedTestCase

	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(j.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		c := b.Cursor()

		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			var entry model.DeletedTestCase
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshal error for key %s: %w", k, err)
			}
			results = append(results, entry)
		}

		return nil
	})

	return results, err
}

func (j *BboltJournal) Count() (int64, error) {
	var count int64
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(j.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		count = int64(b.Stats().KeyN)
		return nil
	})
	return count, err
}
