package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	"github.com/redglass/conductor/pkg/cmd"
	"github.com/redglass/conductor/pkg/log"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check every workflow in the collection against the schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory holding the workflow collection",
				Value:   "./data",
				Sources: cli.EnvVars("DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("conductor")

	persistence := cmd.NewPersistence(command.String("data-dir"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	definitions, err := persistence.LoadWorkflows(ctx)
	if err != nil {
		return err
	}

	validate := validator.New()
	invalid := 0

	for _, def := range definitions {
		if err := validate.Struct(def); err != nil {
			invalid++

			logger.Error("Invalid workflow", "workflow_id", def.ID, "name", def.Name, "error", err)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d workflows are invalid", invalid, len(definitions))
	}

	logger.Info("All workflows valid", "count", len(definitions))

	return nil
}
