package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

func detail(id int, fields map[string]interface{}) model.WorkItemDetail {
	return model.WorkItemDetail{ID: id, Fields: fields}
}

func TestFilterNoSteps(t *testing.T) {
	items := []model.WorkItemDetail{
		detail(1, map[string]interface{}{model.FieldTitle: "a"}),
		detail(2, map[string]interface{}{model.FieldSteps: "<steps/>"}),
		detail(3, map[string]interface{}{model.FieldSteps: ""}),
		detail(4, map[string]interface{}{model.FieldSteps: nil}),
		detail(5, nil),
		detail(6, map[string]interface{}{}),
	}

	got := FilterNoSteps(items)

	ids := make([]int, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	require.Equal(t, []int{1, 5, 6}, ids, "present-but-empty and present-but-nil steps do not qualify")
}

func TestFilterNoSteps_Idempotent(t *testing.T) {
	srv := newFakeServer(120, 3, 17, 40, 51, 77, 99, 120)
	var items []model.WorkItemDetail
	for id := 1; id <= 120; id++ {
		items = append(items, srv.items[id])
	}

	once := FilterNoSteps(items)
	require.Len(t, once, 7)
	require.Equal(t, once, FilterNoSteps(once))
}

func TestFilterNoSteps_Empty(t *testing.T) {
	require.Empty(t, FilterNoSteps(nil))
	require.Empty(t, FilterNoSteps([]model.WorkItemDetail{}))
}

func TestFilterNoSteps_DoesNotModifyInput(t *testing.T) {
	items := []model.WorkItemDetail{
		detail(1, map[string]interface{}{model.FieldSteps: "x"}),
		detail(2, nil),
	}
	_ = FilterNoSteps(items)
	require.Equal(t, 1, items[0].ID)
	require.Equal(t, 2, items[1].ID)
}
