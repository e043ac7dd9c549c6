// Package batch splits ordered id lists into fixed-size chunks that fit the
// server's per-request limit.
package batch

import (
	"fmt"
	"iter"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// DefaultSize matches the number of ids the cleanup sends per details request
const DefaultSize = 50

// Partition returns a lazy sequence of batches of exactly size items, except the
// last one which holds the remainder. Empty input yields no batches.
// Batches are subslices of items and share its backing array.
func Partition[T any](items []T, size int) (iter.Seq[[]T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d: %w", size, model.ErrInvalidArgument)
	}

	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}, nil
}

// Count returns the number of batches Partition yields for n items
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
