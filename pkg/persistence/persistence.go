// Package persistence provides the storage abstraction for workflow
// definitions. The collection is persisted as a single unit: every write is a
// whole-collection replace, not an incremental patch.
package persistence

import (
	"context"

	"github.com/redglass/conductor/pkg/models"
)

type Persistence interface {
	LoadWorkflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
	SaveWorkflows(ctx context.Context, workflows []*models.WorkflowDefinition) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
