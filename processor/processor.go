package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/batch"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/journal"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/logger"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

// State is a step of a cleanup run. States only move forward.
type State int

const (
	StateConnected State = iota
	StateQueriedCandidates
	StateFetchedDetails
	StateFiltered
	StateReportedDry
	StateDeleted
	StateReportedFinal
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateQueriedCandidates:
		return "queried_candidates"
	case StateFetchedDetails:
		return "fetched_details"
	case StateFiltered:
		return "filtered"
	case StateReportedDry:
		return "reported_dry"
	case StateDeleted:
		return "deleted"
	case StateReportedFinal:
		return "reported_final"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	Commit        bool     // delete matching test cases; false only reports them
	BatchSize     int      // ids per details request, 0 means batch.DefaultSize
	FetchWorkers  int      // optional: concurrent details requests, 0 means unbounded
	DeleteWorkers int      // optional: concurrent delete requests, 0 means unbounded
	Fields        []string // projection, defaults to model.DetailFields

	// OnTransition is called after every state change with the counts so far
	OnTransition func(state State, result *model.CleanupResult)
}

// validate rejects options that could only fail after the server was contacted
func (o *Options) validate() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d: %w", o.BatchSize, model.ErrInvalidArgument)
	}
	if o.BatchSize > tracker.MaxIDsPerRequest {
		return fmt.Errorf("batch size cannot exceed %d, got %d: %w", tracker.MaxIDsPerRequest, o.BatchSize, model.ErrInvalidArgument)
	}
	return nil
}

type Runner struct {
	conn    *tracker.Connection
	journal journal.Journal
	logger  logger.Logger
	opts    Options
	now     func() time.Time
}

// NewRunner creates a new Runner with the provided dependencies
func NewRunner(conn *tracker.Connection, j journal.Journal, log logger.Logger, opts Options) *Runner {
	// Use NoOpLogger if none provided
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if j == nil {
		j = journal.NewNoOpJournal()
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if len(opts.Fields) == 0 {
		opts.Fields = model.DetailFields
	}
	return &Runner{
		conn:    conn,
		journal: j,
		logger:  log,
		opts:    opts,
		now:     time.Now,
	}
}

// FetchStats contains statistics from the candidate query and detail fetch
type FetchStats struct {
	Candidates int           // ids returned by the query
	Batches    int           // details requests issued
	Fetched    int           // details received
	Duration   time.Duration // query and fetch wall time
}

func (s *FetchStats) String() string {
	return fmt.Sprintf("Fetch: candidates=%d, batches=%d, fetched=%d, took=%s",
		s.Candidates, s.Batches, s.Fetched, s.Duration.Round(time.Millisecond))
}

// DeleteStats contains statistics from the delete stage
type DeleteStats struct {
	Requested int // matching test cases sent for deletion
	Deleted   int // confirmed deletions
	Failed    int // failed deletions
	Journaled int // deletions recorded in the journal
}

func (s *DeleteStats) String() string {
	return fmt.Sprintf("Delete: requested=%d, deleted=%d, failed=%d, journaled=%d",
		s.Requested, s.Deleted, s.Failed, s.Journaled)
}

// Run performs one cleanup pass over the named project.
// The result is returned together with any error so callers can report partial progress.
func (r *Runner) Run(ctx context.Context, projectName string) (*model.CleanupResult, error) {
	result := &model.CleanupResult{
		Project: model.Project{Name: projectName},
		Commit:  r.opts.Commit,
	}

	if err := r.opts.validate(); err != nil {
		r.logger.Error("Invalid options: %v", err)
		return result, err
	}

	r.logger.Info("Starting cleanup of project %s (commit=%t)", projectName, r.opts.Commit)

	project, err := r.conn.Projects.GetProject(ctx, projectName)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			r.logger.Error("Project %s not found", projectName)
		} else {
			r.logger.Error("Failed to look up project %s: %v", projectName, err)
		}
		return result, err
	}
	result.Project = *project
	r.transition(StateConnected, result)

	fetchStats := &FetchStats{}
	start := time.Now()

	refs, err := r.conn.WorkItems.QueryByText(ctx, *project, tracker.TestCaseQuery(project.Name))
	if err != nil {
		r.logger.Error("Failed to query test cases: %v", err)
		return result, err
	}
	result.Candidates = len(refs)
	fetchStats.Candidates = len(refs)
	r.transition(StateQueriedCandidates, result)

	ids := make([]int, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	fetchStats.Batches = batch.Count(len(ids), r.opts.BatchSize)

	details, err := FetchDetails(ctx, r.conn.WorkItems, ids, r.opts.Fields, r.opts.BatchSize, r.opts.FetchWorkers)
	if err != nil {
		r.logger.Error("Failed to fetch test case details: %v", err)
		return result, err
	}
	fetchStats.Fetched = len(details)
	fetchStats.Duration = time.Since(start)
	r.logger.Debug(fetchStats.String())
	r.logRate()
	r.transition(StateFetchedDetails, result)

	result.Items = FilterNoSteps(details)
	result.Matching = len(result.Items)
	for _, item := range result.Items {
		r.logger.Info("[%d] %s", item.ID, item.Title)
	}
	r.transition(StateFiltered, result)

	r.logger.Info("Found %d test cases with no steps out of %d", result.Matching, result.Candidates)
	r.transition(StateReportedDry, result)

	if !r.opts.Commit {
		return result, nil
	}

	r.logger.Info("Deleting %d test cases with no steps", result.Matching)
	deleteStats := &DeleteStats{Requested: result.Matching}

	deletedIDs, deleteErr := DeleteAll(ctx, r.conn.TestManagement, project.ID, result.Items, true, r.opts.DeleteWorkers)
	result.Deleted = len(deletedIDs)
	deleteStats.Deleted = len(deletedIDs)

	var delErr *DeleteError
	if errors.As(deleteErr, &delErr) {
		result.FailedIDs = delErr.FailedIDs()
		deleteStats.Failed = len(result.FailedIDs)
		for _, f := range delErr.Failures {
			r.logger.Error("Failed to delete test case %d: %v", f.ID, f.Err)
		}
	}

	deleteStats.Journaled = r.record(*project, result.Items, deletedIDs)
	r.logger.Debug(deleteStats.String())
	r.logRate()
	r.transition(StateDeleted, result)

	r.logger.Info("%d test cases deleted", result.Deleted)
	r.transition(StateReportedFinal, result)

	return result, deleteErr
}

// record journals the deleted items; journal errors are only logged since the deletions already happened
func (r *Runner) record(project model.Project, items []model.WorkItemDetail, deletedIDs []int) int {
	if len(deletedIDs) == 0 {
		return 0
	}

	deleted := make(map[int]struct{}, len(deletedIDs))
	for _, id := range deletedIDs {
		deleted[id] = struct{}{}
	}

	now := r.now().UTC()
	entries := make([]model.DeletedTestCase, 0, len(deletedIDs))
	for _, item := range items {
		if _, ok := deleted[item.ID]; !ok {
			continue
		}
		entries = append(entries, model.DeletedTestCase{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			ID:          item.ID,
			Title:       item.Title,
			CreatedBy:   item.CreatedBy,
			CreatedDate: item.CreatedDate,
			DeletedAt:   now,
		})
	}

	if err := r.journal.RecordDeleted(entries...); err != nil {
		r.logger.Warn("Failed to record %d deleted test cases in journal: %v", len(entries), err)
		return 0
	}
	return len(entries)
}

func (r *Runner) transition(state State, result *model.CleanupResult) {
	r.logger.Info("State %s: found=%d, matching=%d, deleted=%d, failed=%d",
		state, result.Candidates, result.Matching, result.Deleted, len(result.FailedIDs))
	if r.opts.OnTransition != nil {
		r.opts.OnTransition(state, result)
	}
}

func (r *Runner) logRate() {
	if r.conn.Monitor == nil {
		return
	}
	r.logger.Debug("Requests: total=%d, rps=%d", r.conn.Monitor.RequestCount(), r.conn.Monitor.GetCurrentRPS())
}
