// Package delay provides the action that pauses the pipeline for a configured
// duration.
package delay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redglass/conductor/pkg/models"
)

const maxDelay = time.Hour

// ErrDelayInvalid is returned when the duration is missing or out of range.
var ErrDelayInvalid = errors.New("delay requires 'seconds' between 0 and 3600")

type Action struct {
	Duration time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	seconds, ok := config["seconds"].(float64)
	if !ok {
		if ms, msOK := config["milliseconds"].(float64); msOK {
			duration := time.Duration(ms) * time.Millisecond
			if duration <= 0 || duration > maxDelay {
				return nil, ErrDelayInvalid
			}

			return &Action{Duration: duration}, nil
		}

		return nil, ErrDelayInvalid
	}

	duration := time.Duration(seconds * float64(time.Second))
	if duration <= 0 || duration > maxDelay {
		return nil, ErrDelayInvalid
	}

	return &Action{Duration: duration}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "delay_action")
	logger.InfoContext(ctx, "Delaying pipeline", "duration", a.Duration)

	select {
	case <-time.After(a.Duration):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
