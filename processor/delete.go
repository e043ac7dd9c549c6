package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

var ErrDelete = errors.New("test case deletion failed")

type DeleteFailure struct {
	ID  int
	Err error
}

// DeleteError lists every delete request that failed in one DeleteAll call
type DeleteError struct {
	Failures []DeleteFailure
}

func (e *DeleteError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d test case deletions failed:", len(e.Failures))
	for i, f := range e.Failures {
		if i > 0 {
			sb.WriteString(";")
		}
		fmt.Fprintf(&sb, " [%d] %v", f.ID, f.Err)
	}
	return sb.String()
}

func (e *DeleteError) Is(target error) bool {
	return target == ErrDelete
}

func (e *DeleteError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// FailedIDs returns the ids of the failed deletions in input order
func (e *DeleteError) FailedIDs() []int {
	ids := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return ids
}

// DeleteAll issues one delete per item when commit is set and waits for all of them.
// It returns the ids deleted successfully, in input order, and a *DeleteError
// naming every id that failed. Successful deletions are never rolled back.
func DeleteAll(ctx context.Context, deleter tracker.TestCaseDeleter, projectID uuid.UUID, items []model.WorkItemDetail, commit bool, workers int) ([]int, error) {
	if !commit || len(items) == 0 {
		return nil, nil
	}

	results := make([]error, len(items))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, item := range items {
		g.Go(func() error {
			results[i] = deleter.DeleteByID(ctx, projectID, item.ID)
			return nil
		})
	}
	_ = g.Wait() // tasks never return an error; failures are kept per slot

	deleted := make([]int, 0, len(items))
	var failures []DeleteFailure
	for i, err := range results {
		if err != nil {
			failures = append(failures, DeleteFailure{ID: items[i].ID, Err: err})
			continue
		}
		deleted = append(deleted, items[i].ID)
	}

	if len(failures) > 0 {
		return deleted, &DeleteError{Failures: failures}
	}
	return deleted, nil
}
