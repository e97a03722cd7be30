// Package notification provides the action that sends a user-visible
// notification through the external notifier collaborator.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/protocol"
)

type Action struct {
	notifier protocol.Notifier
	Title    string
	Body     string
}

func NewAction(notifier protocol.Notifier, config map[string]any) (*Action, error) {
	title, _ := config["title"].(string)
	if title == "" {
		title = "Conductor"
	}

	body, _ := config["body"].(string)
	if body == "" {
		body, _ = config["message"].(string)
	}

	return &Action{notifier: notifier, Title: title, Body: body}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "notification_action")
	logger.InfoContext(ctx, "Sending notification", "title", a.Title)

	if err := a.notifier.Notify(ctx, a.Title, a.Body); err != nil {
		return nil, fmt.Errorf("notification failed: %w", err)
	}

	return nil, nil
}
