package cmd

import (
	"log/slog"

	"github.com/redglass/conductor/pkg/actions/aiprompt"
	"github.com/redglass/conductor/pkg/actions/clipboard"
	"github.com/redglass/conductor/pkg/actions/condition"
	"github.com/redglass/conductor/pkg/actions/delay"
	"github.com/redglass/conductor/pkg/actions/fetch"
	"github.com/redglass/conductor/pkg/actions/httprequest"
	"github.com/redglass/conductor/pkg/actions/mcptool"
	"github.com/redglass/conductor/pkg/actions/notification"
	"github.com/redglass/conductor/pkg/actions/transform"
	"github.com/redglass/conductor/pkg/protocol"
	"github.com/redglass/conductor/pkg/registry"
)

// Collaborators are the host integrations the action set depends on.
type Collaborators struct {
	Completer  protocol.Completer
	Notifier   protocol.Notifier
	Clipboard  protocol.Clipboard
	ToolCaller mcptool.ToolCaller
}

// NewRegistry builds the action registry with the full native action set.
func NewRegistry(logger *slog.Logger, collab Collaborators) *registry.Registry {
	reg := registry.NewRegistry(logger)

	factories := []protocol.ActionFactory{
		mcptool.NewActionFactory(collab.ToolCaller),
		aiprompt.NewActionFactory(collab.Completer),
		notification.NewActionFactory(collab.Notifier),
		clipboard.NewActionFactory(collab.Clipboard),
		httprequest.NewActionFactory(),
		fetch.NewActionFactory(),
		transform.NewActionFactory(),
		condition.NewActionFactory(),
		delay.NewActionFactory(),
	}

	for _, factory := range factories {
		if err := reg.RegisterAction(factory); err != nil {
			panic(err)
		}
	}

	return reg
}
