package model

import "fmt"

type Outcome int

const (
	OutcomeNothingToDelete Outcome = iota
	OutcomeDryRun
	OutcomeDeleted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNothingToDelete:
		return "nothing_to_delete"
	case OutcomeDryRun:
		return "dry_run"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CleanupResult carries the counts of one cleanup run.
// Deleted <= Matching <= Candidates, and Deleted is 0 unless Commit is set.
type CleanupResult struct {
	Project    Project
	Commit     bool
	Candidates int
	Matching   int
	Deleted    int
	Items      []WorkItemDetail // test cases without steps
	FailedIDs  []int            // ids whose delete request failed
}

// Outcome classifies the run for the final status line
func (r *CleanupResult) Outcome() Outcome {
	switch {
	case len(r.FailedIDs) > 0:
		return OutcomeFailed
	case r.Matching == 0:
		return OutcomeNothingToDelete
	case !r.Commit:
		return OutcomeDryRun
	default:
		return OutcomeDeleted
	}
}

func (r *CleanupResult) String() string {
	return fmt.Sprintf("Cleanup: project=%s, found=%d, matching=%d, deleted=%d, failed=%d, commit=%t",
		r.Project.Name, r.Candidates, r.Matching, r.Deleted, len(r.FailedIDs), r.Commit)
}
