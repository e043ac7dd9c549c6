package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

func sampleResult(commit bool, failed ...int) *model.CleanupResult {
	items := []model.WorkItemDetail{
		{ID: 3, Title: "Login works", CreatedBy: "Jamal Hartnett"},
		{ID: 17, Title: "Logout works"},
	}
	deleted := 0
	if commit {
		deleted = len(items) - len(failed)
	}
	return &model.CleanupResult{
		Project:    model.Project{ID: uuid.MustParse("6ce954b1-ce1f-45d1-b94d-e6bf2464ba2c"), Name: "Fabrikam"},
		Commit:     commit,
		Candidates: 120,
		Matching:   len(items),
		Deleted:    deleted,
		Items:      items,
		FailedIDs:  failed,
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		result *model.CleanupResult
		err    error
		want   string
	}{
		{"nothing to delete", &model.CleanupResult{Candidates: 10}, nil, "nothing to delete"},
		{"dry run", sampleResult(false), nil, "dry-run completed, 2 found"},
		{"deleted", sampleResult(true), nil, "2 deleted"},
		{"run error", sampleResult(true, 17), errors.New("1 test case deletions failed: [17] 403"), "failed: 1 test case deletions failed: [17] 403"},
		{"failed ids without error", sampleResult(true, 17), nil, "failed: 1 of 2 deletions failed"},
		{"project not found", &model.CleanupResult{}, fmt.Errorf("project %q: %w", "Contoso", model.ErrProjectNotFound), `failed: project "Contoso": project not found`},
		{"nil result", nil, nil, "failed: no result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Status(tt.result, tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 30, 5, 0, time.FixedZone("CEST", 2*3600))
	doc := New(sampleResult(true, 17), errors.New("boom"), now)

	require.Equal(t, "Fabrikam", doc.Project.Name)
	require.Equal(t, time.UTC, doc.GeneratedAt.Location())
	require.Equal(t, "failed", doc.Outcome)
	require.Equal(t, "failed: boom", doc.Status)
	require.Equal(t, "boom", doc.Error)
	require.Equal(t, 120, doc.Candidates)
	require.Equal(t, 2, doc.Matching)
	require.Equal(t, 1, doc.Deleted)
	require.Equal(t, []int{17}, doc.FailedIDs)
	require.Len(t, doc.Items, 2)
	require.True(t, doc.Items[0].Deleted)
	require.False(t, doc.Items[1].Deleted)

	require.Equal(t, "Fabrikam/cleanup-20261019T123005Z.json", doc.FileName())
}

func TestNew_DryRun(t *testing.T) {
	doc := New(sampleResult(false), nil, time.Now())
	require.Equal(t, "dry_run", doc.Outcome)
	require.Empty(t, doc.Error)
	for _, it := range doc.Items {
		require.False(t, it.Deleted)
	}
}

func TestNew_NilResult(t *testing.T) {
	doc := New(nil, model.ErrProjectNotFound, time.Now())
	require.Equal(t, "failed", doc.Outcome)
	require.NotNil(t, doc.Items)
	require.Contains(t, doc.FileName(), "unknown/cleanup-")
}

func TestMarshal(t *testing.T) {
	doc := New(sampleResult(false), nil, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	data, err := doc.Marshal()
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(data, []byte("}\n")))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "dry_run", decoded["outcome"])
	require.Equal(t, "dry-run completed, 2 found", decoded["status"])
	require.Equal(t, "2026-10-19T12:00:00Z", decoded["generated_at"])
	require.NotContains(t, decoded, "error")
	require.NotContains(t, decoded, "failed_ids")

	items := decoded["items"].([]interface{})
	require.Len(t, items, 2)
	require.Equal(t, "Login works", items[0].(map[string]interface{})["title"])
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(true, 17), errors.New("1 test case deletions failed")))

	out := buf.String()
	require.Contains(t, out, "TEST CASE CLEANUP")
	require.Contains(t, out, "(delete)")
	require.Contains(t, out, "project:    Fabrikam")
	require.Contains(t, out, "test cases: 120")
	require.Contains(t, out, "no steps:   2")
	require.Contains(t, out, "deleted:    1")
	require.Contains(t, out, "[3] Login works")
	require.Contains(t, out, IconFail+" [17] Logout works")
	require.Contains(t, out, IconFail+" failed: 1 test case deletions failed")
}

func TestRender_DryRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(false), nil))

	out := buf.String()
	require.Contains(t, out, "(dry-run)")
	require.NotContains(t, out, "deleted:")
	require.Contains(t, out, IconWarn+" dry-run completed, 2 found")
}

func TestRender_NothingToDelete(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &model.CleanupResult{Candidates: 4}, nil))
	require.Contains(t, buf.String(), IconPass+" nothing to delete")
}
