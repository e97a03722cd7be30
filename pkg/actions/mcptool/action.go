// Package mcptool provides the action that invokes a tool on a supervised
// tool-server process.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redglass/conductor/pkg/mcp"
	"github.com/redglass/conductor/pkg/models"
)

// ErrToolConfigInvalid is returned when server or tool is missing.
var ErrToolConfigInvalid = errors.New("mcp_tool requires 'server' and 'tool'")

// ToolCaller is the supervisor surface this action needs; satisfied by
// *mcp.Manager.
type ToolCaller interface {
	CallTool(ctx context.Context, toolKey string, arguments map[string]any) (any, error)
}

type Action struct {
	caller     ToolCaller
	Server     string
	Tool       string
	Parameters map[string]any
}

func NewAction(caller ToolCaller, config map[string]any) (*Action, error) {
	server, _ := config["server"].(string)
	tool, _ := config["tool"].(string)

	if server == "" || tool == "" {
		return nil, ErrToolConfigInvalid
	}

	parameters, _ := config["parameters"].(map[string]any)
	if parameters == nil {
		parameters = map[string]any{}
	}

	return &Action{
		caller:     caller,
		Server:     server,
		Tool:       tool,
		Parameters: parameters,
	}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "mcp_tool_action", "server", a.Server, "tool", a.Tool)
	logger.InfoContext(ctx, "Invoking tool")

	result, err := a.caller.CallTool(ctx, mcp.ToolKey(a.Server, a.Tool), a.Parameters)
	if err != nil {
		return nil, fmt.Errorf("tool invocation failed: %w", err)
	}

	return result, nil
}
