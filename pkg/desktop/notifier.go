// Package desktop implements the host-integration collaborators: user
// notifications and the system clipboard. Both shell out to the usual Linux
// desktop utilities and degrade to an in-process fallback when the host has
// none, so headless runs still work.
package desktop

import (
	"context"
	"log/slog"
	"os/exec"
)

// Notifier delivers notifications through notify-send when available,
// otherwise it logs them.
type Notifier struct {
	logger *slog.Logger
	binary string
}

func NewNotifier(logger *slog.Logger) *Notifier {
	binary, err := exec.LookPath("notify-send")
	if err != nil {
		binary = ""
	}

	return &Notifier{
		logger: logger.With("module", "desktop"),
		binary: binary,
	}
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	if n.binary == "" {
		n.logger.Info("Notification", "title", title, "body", body)

		return nil
	}

	return exec.CommandContext(ctx, n.binary, title, body).Run()
}
