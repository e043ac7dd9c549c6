// Package tracker talks to the work-tracking server: project lookup, work item
// queries and details, and test case deletion.
package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/logger"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// MaxIDsPerRequest is the server limit on ids in a single work items request
const MaxIDsPerRequest = 200

type ProjectLookup interface {
	// GetProject returns model.ErrProjectNotFound when no project has that name
	GetProject(ctx context.Context, name string) (*model.Project, error)
}

type WorkItemClient interface {
	QueryByText(ctx context.Context, project model.Project, query string) ([]model.WorkItemRef, error)
	// GetDetails accepts at most MaxIDsPerRequest ids
	GetDetails(ctx context.Context, ids []int, fields []string) ([]model.WorkItemDetail, error)
}

type TestCaseDeleter interface {
	DeleteByID(ctx context.Context, projectID uuid.UUID, id int) error
}

// RequestMonitor exposes transport counters for progress logging
type RequestMonitor interface {
	RequestCount() int64
	GetCurrentRPS() int64
}

// Connection bundles the three capability handles the cleanup needs
type Connection struct {
	Projects       ProjectLookup
	WorkItems      WorkItemClient
	TestManagement TestCaseDeleter
	Monitor        RequestMonitor // optional
}

// Connect validates the server settings and returns handles backed by the REST API
func Connect(cfg *config.ServerConfig, log logger.Logger) (*Connection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	client, err := NewAzureDevOpsClient(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Connection{
		Projects:       client,
		WorkItems:      client,
		TestManagement: client,
		Monitor:        client,
	}, nil
}

// TestCaseQuery returns the WIQL selecting every Test Case of a project
func TestCaseQuery(projectName string) string {
	escaped := strings.ReplaceAll(projectName, "'", "''")
	return fmt.Sprintf("SELECT [%s] FROM WorkItems WHERE [System.WorkItemType] = 'Test Case' AND [System.TeamProject] = '%s'",
		model.FieldID, escaped)
}
