package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"hookci/internal/log"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "hookci",
		Usage: "run, check and trigger hookci pipelines",
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			tokenCommand(),
			triggerCommand(),
		},
	}
}

func main() {
	cmd := newCommand()

	ctx := context.Background()
	logger := log.New("hookci")
	ctx = log.IntoContext(ctx, logger.With("command", cmd.Name))

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
