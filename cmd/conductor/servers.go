package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/redglass/conductor/pkg/mcp"
)

type serverConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// registerConfiguredServers launches the tool servers listed in a JSON config
// file. A server that fails to spawn aborts startup; misconfiguration should
// be loud, not a half-running core.
func registerConfiguredServers(ctx context.Context, manager *mcp.Manager, logger *slog.Logger, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read servers config: %w", err)
	}

	var configs []serverConfig
	if err := json.Unmarshal(body, &configs); err != nil {
		return fmt.Errorf("failed to parse servers config: %w", err)
	}

	for _, cfg := range configs {
		spec := mcp.LaunchSpec{Command: cfg.Command, Args: cfg.Args, Env: cfg.Env}

		if err := manager.AddServer(ctx, cfg.Name, spec); err != nil {
			return fmt.Errorf("failed to start tool server %q: %w", cfg.Name, err)
		}

		logger.Info("Started configured tool server", "server", cfg.Name, "command", cfg.Command)
	}

	return nil
}
