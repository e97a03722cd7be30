package desktop

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// clipboardTool is one copy/paste command pair known to work on a desktop.
type clipboardTool struct {
	copyCmd  []string
	pasteCmd []string
}

// Preference order: Wayland first, then X11.
var clipboardTools = []clipboardTool{
	{copyCmd: []string{"wl-copy"}, pasteCmd: []string{"wl-paste", "--no-newline"}},
	{copyCmd: []string{"xclip", "-selection", "clipboard"}, pasteCmd: []string{"xclip", "-selection", "clipboard", "-o"}},
}

// Clipboard bridges to the system clipboard via wl-copy/xclip. When neither
// is installed it keeps an in-process buffer instead, which is enough for
// workflows that copy in one step and read in a later one.
type Clipboard struct {
	logger *slog.Logger
	tool   *clipboardTool

	mu     sync.Mutex
	buffer string
}

func NewClipboard(logger *slog.Logger) *Clipboard {
	c := &Clipboard{logger: logger.With("module", "desktop")}

	for i := range clipboardTools {
		if _, err := exec.LookPath(clipboardTools[i].copyCmd[0]); err == nil {
			c.tool = &clipboardTools[i]

			break
		}
	}

	if c.tool == nil {
		c.logger.Warn("No clipboard utility found, using in-process buffer")
	}

	return c
}

func (c *Clipboard) Read(ctx context.Context) (string, error) {
	if c.tool == nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		return c.buffer, nil
	}

	out, err := exec.CommandContext(ctx, c.tool.pasteCmd[0], c.tool.pasteCmd[1:]...).Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}

func (c *Clipboard) Write(ctx context.Context, text string) error {
	if c.tool == nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.buffer = text

		return nil
	}

	cmd := exec.CommandContext(ctx, c.tool.copyCmd[0], c.tool.copyCmd[1:]...)
	cmd.Stdin = bytes.NewReader([]byte(text))

	return cmd.Run()
}
