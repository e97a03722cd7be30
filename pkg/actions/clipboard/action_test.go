package clipboard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/models"
)

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) Read(_ context.Context) (string, error) {
	return c.text, nil
}

func (c *fakeClipboard) Write(_ context.Context, text string) error {
	c.text = text

	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCopyOverwrites(t *testing.T) {
	board := &fakeClipboard{text: "old"}

	action, err := NewAction(board, map[string]any{"operation": "copy", "content": "new"})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, discard())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "new", board.text)
}

func TestReadReturnsContents(t *testing.T) {
	board := &fakeClipboard{text: "stashed"}

	action, err := NewAction(board, map[string]any{"operation": "read"})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, discard())
	require.NoError(t, err)
	assert.Equal(t, "stashed", result)
}

func TestAppendConcatenates(t *testing.T) {
	board := &fakeClipboard{text: "hello "}

	action, err := NewAction(board, map[string]any{"operation": "append", "content": "world"})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, discard())
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
	assert.Equal(t, "hello world", board.text)
}

func TestUnknownOperationRejected(t *testing.T) {
	_, err := NewAction(&fakeClipboard{}, map[string]any{"operation": "clear"})
	require.ErrorIs(t, err, ErrOperationInvalid)
}
