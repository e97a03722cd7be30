// Package protocol defines the contracts between the execution engine, the
// action capabilities, and their external collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/redglass/conductor/pkg/models"
)

// Action is one executable unit of work. Execute receives parameters already
// rendered against the execution context.
type Action interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error)
}

// ActionFactory builds Action instances from a rendered parameter map. ID is
// the action type tag it serves.
type ActionFactory interface {
	ID() string
	Create(params map[string]any) (Action, error)
}
