package processor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/batch"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

var ErrBatchFetch = errors.New("batch fetch failed")

// BatchFetchError identifies the first batch whose details request failed
type BatchFetchError struct {
	Batch int   // zero-based batch index
	IDs   []int // ids of the failed batch
	Err   error
}

func (e *BatchFetchError) Error() string {
	return fmt.Sprintf("fetching batch %d (%d ids): %v", e.Batch, len(e.IDs), e.Err)
}

func (e *BatchFetchError) Is(target error) bool {
	return target == ErrBatchFetch
}

func (e *BatchFetchError) Unwrap() error {
	return e.Err
}

// FetchDetails requests the fields of every id, one GetDetails call per batch.
// Batches run concurrently; workers <= 0 starts them all at once.
// Once a batch fails, batches that have not started are skipped, running ones
// finish, and no partial result is returned.
func FetchDetails(ctx context.Context, client tracker.WorkItemClient, ids []int, fields []string, batchSize, workers int) ([]model.WorkItemDetail, error) {
	batches, err := batch.Partition(ids, batchSize)
	if err != nil {
		return nil, err
	}

	// one slot per batch, written only by the goroutine that owns it
	slots := make([][]model.WorkItemDetail, batch.Count(len(ids), batchSize))

	var failed atomic.Bool
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	i := 0
	for ids := range batches {
		index := i
		i++
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			details, err := client.GetDetails(ctx, ids, fields)
			if err != nil {
				failed.Store(true)
				return &BatchFetchError{Batch: index, IDs: ids, Err: err}
			}
			slots[index] = details
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]model.WorkItemDetail, 0, len(ids))
	for _, details := range slots {
		merged = append(merged, details...)
	}
	return merged, nil
}
