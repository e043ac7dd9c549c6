// Package report turns a cleanup result into a JSON document, a status line
// and a styled console summary.
package report

import (
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// Item is one matching test case in the report
type Item struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedDate time.Time `json:"created_date,omitempty"`
	Deleted     bool      `json:"deleted"`
}

type Document struct {
	Project     model.Project `json:"project"`
	GeneratedAt time.Time     `json:"generated_at"`
	Commit      bool          `json:"commit"`
	Outcome     string        `json:"outcome"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Candidates  int           `json:"candidates"`
	Matching    int           `json:"matching"`
	Deleted     int           `json:"deleted"`
	FailedIDs   []int         `json:"failed_ids,omitempty"`
	Items       []Item        `json:"items"`
}

// New builds the report of a run; runErr is the error Run returned, if any
func New(result *model.CleanupResult, runErr error, now time.Time) *Document {
	if result == nil {
		result = &model.CleanupResult{}
	}

	doc := &Document{
		Project:     result.Project,
		GeneratedAt: now.UTC(),
		Commit:      result.Commit,
		Outcome:     outcome(result, runErr).String(),
		Status:      Status(result, runErr),
		Candidates:  result.Candidates,
		Matching:    result.Matching,
		Deleted:     result.Deleted,
		FailedIDs:   result.FailedIDs,
		Items:       make([]Item, 0, len(result.Items)),
	}
	if runErr != nil {
		doc.Error = runErr.Error()
	}

	// matching items are only ever left undeleted by a failed delete request
	failed := make(map[int]bool, len(result.FailedIDs))
	for _, id := range result.FailedIDs {
		failed[id] = true
	}
	for _, it := range result.Items {
		doc.Items = append(doc.Items, Item{
			ID:          it.ID,
			Title:       it.Title,
			CreatedBy:   it.CreatedBy,
			CreatedDate: it.CreatedDate,
			Deleted:     result.Commit && !failed[it.ID],
		})
	}
	return doc
}

// Marshal returns the indented JSON form of the document
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return append(data, '\n'), nil
}

// FileName is the upload path of the document: <project>/cleanup-<UTC timestamp>.json
func (d *Document) FileName() string {
	name := d.Project.Name
	if name == "" {
		name = "unknown"
	}
	return path.Join(name, "cleanup-"+d.GeneratedAt.Format("20060102T150405Z")+".json")
}

func outcome(result *model.CleanupResult, runErr error) model.Outcome {
	if runErr != nil {
		return model.OutcomeFailed
	}
	return result.Outcome()
}
