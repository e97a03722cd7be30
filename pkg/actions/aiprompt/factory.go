package aiprompt

import (
	"github.com/redglass/conductor/pkg/protocol"
)

type ActionFactory struct {
	completer protocol.Completer
}

func NewActionFactory(completer protocol.Completer) *ActionFactory {
	return &ActionFactory{completer: completer}
}

func (f *ActionFactory) ID() string {
	return "ai_prompt"
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(f.completer, config)
}
