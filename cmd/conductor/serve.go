package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/redglass/conductor/pkg/ai"
	"github.com/redglass/conductor/pkg/cmd"
	"github.com/redglass/conductor/pkg/desktop"
	"github.com/redglass/conductor/pkg/log"
	"github.com/redglass/conductor/pkg/mcp"
	"github.com/redglass/conductor/pkg/web"
	"github.com/redglass/conductor/pkg/workflow"
)

const defaultPort = 8300

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the assistant core with its HTTP surface",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "servers-config",
				Usage:   "Path to a JSON file describing tool servers to launch at startup",
				Sources: cli.EnvVars("SERVERS_CONFIG"),
			},
		}, commonFlags()...),
		Action: runServe,
	}
}

// commonFlags are shared by every subcommand that builds the core.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Directory holding the workflow collection",
			Value:   "./data",
			Sources: cli.EnvVars("DATA_DIR"),
		},
		&cli.StringFlag{
			Name:    "ai-url",
			Usage:   "Base URL of an OpenAI-compatible completion endpoint",
			Value:   "http://localhost:11434/v1",
			Sources: cli.EnvVars("AI_URL"),
		},
		&cli.StringFlag{
			Name:    "ai-model",
			Usage:   "Model name for ai_prompt actions",
			Value:   "llama3.1",
			Sources: cli.EnvVars("AI_MODEL"),
		},
		&cli.StringFlag{
			Name:    "ai-api-key",
			Usage:   "Bearer token for the completion endpoint",
			Sources: cli.EnvVars("AI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func runServe(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("conductor")
	logger.InfoContext(ctx, "Initializing Conductor")

	eventBus := cmd.NewEventBus(logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

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

	manager := mcp.NewManager(logger, eventBus)
	defer manager.Shutdown(context.Background())

	registry := cmd.NewRegistry(logger, cmd.Collaborators{
		Completer:  ai.NewClient(command.String("ai-url"), command.String("ai-model"), command.String("ai-api-key"), logger),
		Notifier:   desktop.NewNotifier(logger),
		Clipboard:  desktop.NewClipboard(logger),
		ToolCaller: manager,
	})

	history := workflow.NewHistory(workflow.DefaultHistoryLimit)
	executor := workflow.NewExecutor(store, registry, history, eventBus, nil, logger)

	scheduler := workflow.NewScheduler(store, executor, eventBus, logger)
	scheduler.Start()

	defer scheduler.Stop()

	if path := command.String("servers-config"); path != "" {
		if err := registerConfiguredServers(ctx, manager, logger, path); err != nil {
			return err
		}
	}

	app := web.NewApp(web.NewAPIHandlers(store, executor, scheduler, history, manager, logger))

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":" + strconv.Itoa(command.Int("port")))
	}()

	select {
	case err := <-errCh:
		return err
	case <-signalCtx.Done():
		logger.Info("Shutting down")

		return app.ShutdownWithContext(context.Background())
	}
}
