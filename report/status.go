package report

import (
	"fmt"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// Status returns the one-line final status of a run
func Status(result *model.CleanupResult, runErr error) string {
	if runErr != nil {
		return "failed: " + runErr.Error()
	}
	if result == nil {
		return "failed: no result"
	}

	switch result.Outcome() {
	case model.OutcomeNothingToDelete:
		return "nothing to delete"
	case model.OutcomeDryRun:
		return fmt.Sprintf("dry-run completed, %d found", result.Matching)
	case model.OutcomeDeleted:
		return fmt.Sprintf("%d deleted", result.Deleted)
	default:
		return fmt.Sprintf("failed: %d of %d deletions failed", len(result.FailedIDs), result.Matching)
	}
}
