package clipboard

import (
	"github.com/redglass/conductor/pkg/protocol"
)

type ActionFactory struct {
	clipboard protocol.Clipboard
}

func NewActionFactory(clipboard protocol.Clipboard) *ActionFactory {
	return &ActionFactory{clipboard: clipboard}
}

func (f *ActionFactory) ID() string {
	return "clipboard"
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(f.clipboard, config)
}
