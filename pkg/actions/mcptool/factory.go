package mcptool

import (
	"github.com/redglass/conductor/pkg/protocol"
)

type ActionFactory struct {
	caller ToolCaller
}

func NewActionFactory(caller ToolCaller) *ActionFactory {
	return &ActionFactory{caller: caller}
}

func (f *ActionFactory) ID() string {
	return "mcp_tool"
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(f.caller, config)
}
