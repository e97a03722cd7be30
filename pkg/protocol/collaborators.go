package protocol

import "context"

// Completer produces an AI text completion for a prompt. The concrete model
// integration lives outside this module.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}
