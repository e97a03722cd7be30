// Package aiprompt provides the action that requests a text completion from
// the external AI collaborator.
package aiprompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/protocol"
)

// ErrPromptMissing is returned when the prompt is empty after rendering.
var ErrPromptMissing = errors.New("ai_prompt requires a non-empty 'prompt'")

type Action struct {
	completer protocol.Completer
	Prompt    string
}

func NewAction(completer protocol.Completer, config map[string]any) (*Action, error) {
	prompt, _ := config["prompt"].(string)
	if prompt == "" {
		return nil, ErrPromptMissing
	}

	return &Action{completer: completer, Prompt: prompt}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "ai_prompt_action")
	logger.InfoContext(ctx, "Requesting completion", "prompt_length", len(a.Prompt))

	text, err := a.completer.Complete(ctx, a.Prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	return text, nil
}
