// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redglass/conductor/pkg/channels/gochannel"
	"github.com/redglass/conductor/pkg/eventbus"
)

// NewEventBus builds the in-process event bus. The assistant core is a
// single-host program, so the bus always runs on watermill go channels.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillEventBus(pub, sub, logger)
}
