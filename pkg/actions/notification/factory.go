package notification

import (
	"github.com/redglass/conductor/pkg/protocol"
)

type ActionFactory struct {
	notifier protocol.Notifier
}

func NewActionFactory(notifier protocol.Notifier) *ActionFactory {
	return &ActionFactory{notifier: notifier}
}

func (f *ActionFactory) ID() string {
	return "notification"
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(f.notifier, config)
}
