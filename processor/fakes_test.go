package processor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

// fakeServer is an in-memory project with test cases, implementing every tracker interface
type fakeServer struct {
	project *model.Project
	items   map[int]model.WorkItemDetail

	queryErr    error
	detailsErr  map[int]error // keyed by the first id of a batch
	deleteErr   map[int]error
	onGetDetail func(ids []int)

	mu            sync.Mutex
	lookups       int
	queries       int
	detailBatches [][]int
	deleted       []int
	deleteCalls   int64
}

var _ tracker.ProjectLookup = (*fakeServer)(nil)
var _ tracker.WorkItemClient = (*fakeServer)(nil)
var _ tracker.TestCaseDeleter = (*fakeServer)(nil)

// newFakeServer creates n test cases with ids 1..n; ids in noSteps lack the steps field
func newFakeServer(n int, noSteps ...int) *fakeServer {
	missing := make(map[int]bool, len(noSteps))
	for _, id := range noSteps {
		missing[id] = true
	}

	items := make(map[int]model.WorkItemDetail, n)
	for id := 1; id <= n; id++ {
		fields := map[string]interface{}{
			model.FieldID:    id,
			model.FieldTitle: fmt.Sprintf("Test case %d", id),
		}
		if !missing[id] {
			fields[model.FieldSteps] = `<steps id="0" last="2"></steps>`
		}
		items[id] = model.WorkItemDetail{ID: id, Title: fmt.Sprintf("Test case %d", id), Fields: fields}
	}

	return &fakeServer{
		project:    &model.Project{ID: uuid.New(), Name: "Fabrikam"},
		items:      items,
		detailsErr: map[int]error{},
		deleteErr:  map[int]error{},
	}
}

func (f *fakeServer) connection() *tracker.Connection {
	return &tracker.Connection{Projects: f, WorkItems: f, TestManagement: f}
}

func (f *fakeServer) GetProject(ctx context.Context, name string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.project == nil || f.project.Name != name {
		return nil, fmt.Errorf("project %q: %w", name, model.ErrProjectNotFound)
	}
	p := *f.project
	return &p, nil
}

func (f *fakeServer) QueryByText(ctx context.Context, project model.Project, query string) ([]model.WorkItemRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	refs := make([]model.WorkItemRef, len(ids))
	for i, id := range ids {
		refs[i] = model.WorkItemRef{ID: id, ProjectID: project.ID}
	}
	return refs, nil
}

func (f *fakeServer) GetDetails(ctx context.Context, ids []int, fields []string) ([]model.WorkItemDetail, error) {
	if f.onGetDetail != nil {
		f.onGetDetail(ids)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailBatches = append(f.detailBatches, append([]int(nil), ids...))
	if len(ids) > tracker.MaxIDsPerRequest {
		return nil, model.ErrInvalidArgument
	}
	if err := f.detailsErr[ids[0]]; err != nil {
		return nil, err
	}
	details := make([]model.WorkItemDetail, 0, len(ids))
	for _, id := range ids {
		details = append(details, f.items[id])
	}
	return details, nil
}

func (f *fakeServer) DeleteByID(ctx context.Context, projectID uuid.UUID, id int) error {
	atomic.AddInt64(&f.deleteCalls, 1)
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeServer) deletedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := append([]int(nil), f.deleted...)
	sort.Ints(ids)
	return ids
}

func (f *fakeServer) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.detailBatches))
	for i, b := range f.detailBatches {
		sizes[i] = len(b)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

// failingJournal rejects every write
type failingJournal struct {
	calls int
}

func (j *failingJournal) RecordDeleted(entries ...model.DeletedTestCase) error {
	j.calls++
	return fmt.Errorf("disk full")
}
func (j *failingJournal) Get(uuid.UUID, int) (*model.DeletedTestCase, error)     { return nil, nil }
func (j *failingJournal) List() ([]model.DeletedTestCase, error)                 { return nil, nil }
func (j *failingJournal) ListProject(uuid.UUID) ([]model.DeletedTestCase, error) { return nil, nil }
func (j *failingJournal) Count() (int64, error)                                  { return 0, nil }
func (j *failingJournal) Close() error                                           { return nil }
