// Package registry maps action type tags to their executor factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redglass/conductor/pkg/protocol"
)

var (
	// ErrUnknownActionType is returned when no factory serves the requested tag.
	ErrUnknownActionType = errors.New("unknown action type")

	// ErrInvalidFactory is returned when a factory fails registration validation.
	ErrInvalidFactory = errors.New("invalid action factory")
)

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ActionFactory),
	}
}

// RegisterAction adds a factory to the capability set. The set is closed but
// extensible: registrations are validated here so a bad factory fails at
// wiring time, not at dispatch time.
func (r *Registry) RegisterAction(factory protocol.ActionFactory) error {
	if factory == nil || factory.ID() == "" {
		return ErrInvalidFactory
	}

	if _, exists := r.factories[factory.ID()]; exists {
		return fmt.Errorf("%w: duplicate action type %q", ErrInvalidFactory, factory.ID())
	}

	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered action", "action_type", factory.ID())

	return nil
}

// CreateAction instantiates the executor for an action type from its rendered
// parameters.
func (r *Registry) CreateAction(actionType string, params map[string]any) (protocol.Action, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}

	return factory.Create(params)
}

// AvailableActions returns all registered action type tags.
func (r *Registry) AvailableActions() []string {
	types := make([]string, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	return types
}
