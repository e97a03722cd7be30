package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "conductor",
		Usage:                 "Assistant core: tool-server supervision and workflow automation",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			ServeCommand(),
			ExecuteCommand(),
			ValidateCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
