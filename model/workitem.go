package model

import (
	"time"

	"github.com/google/uuid"
)

// Work item field reference names used by the cleanup pass.
const (
	FieldID          = "System.Id"
	FieldTitle       = "System.Title"
	FieldSteps       = "Microsoft.VSTS.TCM.Steps"
	FieldCreatedBy   = "System.CreatedBy"
	FieldCreatedDate = "System.CreatedDate"
)

// DetailFields is the projection requested for every candidate test case
var DetailFields = []string{FieldID, FieldTitle, FieldSteps, FieldCreatedBy, FieldCreatedDate}

type Project struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// WorkItemRef is a query hit: the work item id and the project that owns it
type WorkItemRef struct {
	ID        int
	ProjectID uuid.UUID
}

// WorkItemDetail holds the projected fields of a single work item.
// Fields is sparse: a missing key means the server never populated the field.
type WorkItemDetail struct {
	ID          int                    `json:"id"`
	Title       string                 `json:"title"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	CreatedDate time.Time              `json:"created_date,omitempty"`
}

// HasField reports whether the field key is present, regardless of its value
func (d WorkItemDetail) HasField(name string) bool {
	_, ok := d.Fields[name]
	return ok
}

// DeletedTestCase is a journal record of a test case removed from the server
type DeletedTestCase struct {
	ProjectID   uuid.UUID `json:"project_id"`
	ProjectName string    `json:"project_name"`
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedDate time.Time `json:"created_date,omitempty"`
	DeletedAt   time.Time `json:"deleted_at"`
}
