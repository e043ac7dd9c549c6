package processor

import "github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"

// FilterNoSteps keeps the items whose Fields map has no steps key at all.
// An empty or nil steps value still counts as present.
func FilterNoSteps(items []model.WorkItemDetail) []model.WorkItemDetail {
	var matching []model.WorkItemDetail
	for _, item := range items {
		if !item.HasField(model.FieldSteps) {
			matching = append(matching, item)
		}
	}
	return matching
}
