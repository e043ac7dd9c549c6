package journal

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

func newTestJournal(t *testing.T) (*BboltJournal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewBboltJournal(&config.JournalConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func deleted(projectID uuid.UUID, id int, title string) model.DeletedTestCase {
	return model.DeletedTestCase{
		ProjectID:   projectID,
		ProjectName: "Fabrikam",
		ID:          id,
		Title:       title,
		CreatedBy:   "Jamal Hartnett",
		CreatedDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		DeletedAt:   time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := NewBboltJournal(&config.JournalConfig{Path: "/invalid/dir/journal.db"})
	require.Error(t, err)
}

func TestRecordAndGet(t *testing.T) {
	j, _ := newTestJournal(t)
	projectID := uuid.New()

	entry := deleted(projectID, 7, "Login works")
	require.NoError(t, j.RecordDeleted(entry))

	got, err := j.Get(projectID, 7)
	require.NoError(t, err)
	require.Equal(t, entry, *got)

	_, err = j.Get(projectID, 8)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRecordDeleted_Empty(t *testing.T) {
	j, _ := newTestJournal(t)

	require.NoError(t, j.RecordDeleted())

	count, err := j.Count()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestList_OrderedByProjectThenID(t *testing.T) {
	j, _ := newTestJournal(t)
	projectID := uuid.New()

	// 100 sorts before 9 as a string; the padded key must keep numeric order
	require.NoError(t, j.RecordDeleted(
		deleted(projectID, 100, "c"),
		deleted(projectID, 9, "a"),
		deleted(projectID, 10, "b"),
	))

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []int{9, 10, 100}, []int{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestListProject(t *testing.T) {
	j, _ := newTestJournal(t)
	first, second := uuid.New(), uuid.New()

	require.NoError(t, j.RecordDeleted(
		deleted(first, 1, "a"),
		deleted(second, 2, "b"),
		deleted(first, 3, "c"),
	))

	entries, err := j.ListProject(first)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, first, e.ProjectID)
	}

	entries, err = j.ListProject(uuid.New())
	require.NoError(t, err)
	require.Empty(t, entries)

	count, err := j.Count()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestRecordDeleted_Overwrite(t *testing.T) {
	j, _ := newTestJournal(t)
	projectID := uuid.New()

	require.NoError(t, j.RecordDeleted(deleted(projectID, 5, "old")))
	require.NoError(t, j.RecordDeleted(deleted(projectID, 5, "new")))

	got, err := j.Get(projectID, 5)
	require.NoError(t, err)
	require.Equal(t, "new", got.Title)

	count, err := j.Count()
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestReopenKeepsEntries(t *testing.T) {
	j, path := newTestJournal(t)
	projectID := uuid.New()
	require.NoError(t, j.RecordDeleted(deleted(projectID, 1, "a"), deleted(projectID, 2, "b")))
	require.NoError(t, j.Close())

	reopened, err := NewBboltJournal(&config.JournalConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestConcurrentRecord(t *testing.T) {
	j, _ := newTestJournal(t)
	projectID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			require.NoError(t, j.RecordDeleted(deleted(projectID, id, "t")))
		}(i + 1)
	}
	wg.Wait()

	count, err := j.Count()
	require.NoError(t, err)
	require.Equal(t, int64(20), count)
}

func TestOpen(t *testing.T) {
	j, err := Open(&config.JournalConfig{})
	require.NoError(t, err)
	require.IsType(t, &NoOpJournal{}, j)
	require.NoError(t, j.RecordDeleted(deleted(uuid.New(), 1, "a")))
	count, err := j.Count()
	require.NoError(t, err)
	require.Zero(t, count)

	j, err = Open(&config.JournalConfig{Path: filepath.Join(t.TempDir(), "j.db")})
	require.NoError(t, err)
	defer j.Close()
	require.IsType(t, &BboltJournal{}, j)
}
