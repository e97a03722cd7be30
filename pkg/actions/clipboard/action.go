// Package clipboard provides the action that reads and writes the system
// clipboard through the external clipboard collaborator.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/protocol"
)

const (
	OperationCopy   = "copy"
	OperationRead   = "read"
	OperationAppend = "append"
)

// ErrOperationInvalid is returned for operations outside copy/read/append.
var ErrOperationInvalid = errors.New("clipboard operation must be copy, read, or append")

type Action struct {
	clipboard protocol.Clipboard
	Operation string
	Content   string
}

func NewAction(clipboard protocol.Clipboard, config map[string]any) (*Action, error) {
	operation, _ := config["operation"].(string)

	switch operation {
	case OperationCopy, OperationRead, OperationAppend:
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperationInvalid, operation)
	}

	content, _ := config["content"].(string)

	return &Action{clipboard: clipboard, Operation: operation, Content: content}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "clipboard_action", "operation", a.Operation)
	logger.InfoContext(ctx, "Executing clipboard operation")

	switch a.Operation {
	case OperationCopy:
		if err := a.clipboard.Write(ctx, a.Content); err != nil {
			return nil, fmt.Errorf("clipboard write failed: %w", err)
		}

		return nil, nil
	case OperationRead:
		text, err := a.clipboard.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("clipboard read failed: %w", err)
		}

		return text, nil
	case OperationAppend:
		current, err := a.clipboard.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("clipboard read failed: %w", err)
		}

		combined := current + a.Content
		if err := a.clipboard.Write(ctx, combined); err != nil {
			return nil, fmt.Errorf("clipboard write failed: %w", err)
		}

		return combined, nil
	default:
		return nil, ErrOperationInvalid
	}
}
