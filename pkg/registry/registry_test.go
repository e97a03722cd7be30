package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/protocol"
)

type echoFactory struct {
	id string
}

func (f echoFactory) ID() string { return f.id }

func (f echoFactory) Create(params map[string]any) (protocol.Action, error) {
	return echoAction{params: params}, nil
}

type echoAction struct {
	params map[string]any
}

func (a echoAction) Execute(_ context.Context, _ models.ExecutionContext, _ *slog.Logger) (any, error) {
	return a.params["text"], nil
}

func newRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterAndCreate(t *testing.T) {
	reg := newRegistry()

	require.NoError(t, reg.RegisterAction(echoFactory{id: "echo"}))

	action, err := reg.CreateAction("echo", map[string]any{"text": "hello"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, logger)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestRegisterRejectsInvalidFactories(t *testing.T) {
	reg := newRegistry()

	require.ErrorIs(t, reg.RegisterAction(nil), ErrInvalidFactory)
	require.ErrorIs(t, reg.RegisterAction(echoFactory{id: ""}), ErrInvalidFactory)

	require.NoError(t, reg.RegisterAction(echoFactory{id: "echo"}))
	require.ErrorIs(t, reg.RegisterAction(echoFactory{id: "echo"}), ErrInvalidFactory)
}

func TestCreateUnknownType(t *testing.T) {
	reg := newRegistry()

	_, err := reg.CreateAction("missing", nil)
	require.ErrorIs(t, err, ErrUnknownActionType)
}

func TestAvailableActions(t *testing.T) {
	reg := newRegistry()

	require.NoError(t, reg.RegisterAction(echoFactory{id: "echo"}))
	require.NoError(t, reg.RegisterAction(echoFactory{id: "delay"}))

	assert.ElementsMatch(t, []string{"echo", "delay"}, reg.AvailableActions())
}
