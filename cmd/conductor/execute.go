package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/redglass/conductor/pkg/ai"
	"github.com/redglass/conductor/pkg/cmd"
	"github.com/redglass/conductor/pkg/desktop"
	"github.com/redglass/conductor/pkg/log"
	"github.com/redglass/conductor/pkg/mcp"
	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/workflow"
)

func ExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Aliases:   []string{"x"},
		Usage:     "Run one workflow from the collection and print its record",
		ArgsUsage: "<workflow-id>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "message",
				Usage: "Message text to seed the trigger context with",
			},
		}, commonFlags()...),
		Action: runExecute,
	}
}

func runExecute(ctx context.Context, command *cli.Command) error {
	workflowID := command.Args().First()
	if workflowID == "" {
		return errors.New("a workflow id is required")
	}

	log.Setup(command.String("log-level"))

	logger := log.WithModule("conductor")

	persistence := cmd.NewPersistence(command.String("data-dir"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	store, err := workflow.NewStore(ctx, persistence, logger)
	if err != nil {
		return err
	}

	manager := mcp.NewManager(logger, nil)
	defer manager.Shutdown(context.Background())

	registry := cmd.NewRegistry(logger, cmd.Collaborators{
		Completer:  ai.NewClient(command.String("ai-url"), command.String("ai-model"), command.String("ai-api-key"), logger),
		Notifier:   desktop.NewNotifier(logger),
		Clipboard:  desktop.NewClipboard(logger),
		ToolCaller: manager,
	})

	history := workflow.NewHistory(workflow.DefaultHistoryLimit)
	executor := workflow.NewExecutor(store, registry, history, nil, nil, logger)

	record, err := executor.Execute(ctx, workflowID, models.TriggerContext{
		Manual:  true,
		Message: command.String("message"),
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, string(encoded))

	if !record.Success {
		return fmt.Errorf("workflow execution had %d failed actions", len(record.Errors))
	}

	return nil
}
