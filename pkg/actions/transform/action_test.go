package transform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func run(t *testing.T, config map[string]any, values map[string]any) (any, error) {
	t.Helper()

	action, err := NewAction(config)
	require.NoError(t, err)

	return action.Execute(context.Background(), models.ExecutionContext{Values: values}, discard())
}

func TestParseJSON(t *testing.T) {
	result, err := run(t, map[string]any{
		"operation": "parse_json",
		"input":     `{"city":"Lisbon","days":3}`,
	}, nil)
	require.NoError(t, err)

	decoded := result.(map[string]any)
	assert.Equal(t, "Lisbon", decoded["city"])
}

func TestExtractDottedPath(t *testing.T) {
	result, err := run(t, map[string]any{
		"operation": "extract",
		"path":      "weather.today.summary",
		"input": map[string]any{
			"weather": map[string]any{
				"today": map[string]any{"summary": "sunny"},
			},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sunny", result)
}

func TestExtractMissingPath(t *testing.T) {
	_, err := run(t, map[string]any{
		"operation": "extract",
		"path":      "missing.key",
		"input":     map[string]any{"other": 1},
	}, nil)
	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestDefaultsToLastResult(t *testing.T) {
	result, err := run(t,
		map[string]any{"operation": "uppercase"},
		map[string]any{"lastResult": "quiet"},
	)
	require.NoError(t, err)
	assert.Equal(t, "QUIET", result)
}

func TestUnknownOperation(t *testing.T) {
	_, err := NewAction(map[string]any{"operation": "reverse"})
	require.ErrorIs(t, err, ErrOperationInvalid)
}
