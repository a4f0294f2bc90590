package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"hookci/internal/core"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "load a pipeline and its secrets and report problems",
		ArgsUsage: "<pipeline.yaml>",
		Action:    validatePipeline,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "secrets",
				Usage: "secret manifest (default: secrets.yaml next to the pipeline, if present)",
			},
		},
	}
}

func validatePipeline(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("missing pipeline manifest argument", 1)
	}
	w := cmd.Root().Writer

	pipeline, err := core.LoadPipeline(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(w, "pipeline %q\n", pipeline.Name)
	for i, step := range pipeline.Steps {
		fmt.Fprintf(w, "  %d. %s (%d commands)\n", i+1, step.Name, len(step.Commands))
	}
	if pipeline.OnFailure != nil {
		fmt.Fprintf(w, "  on failure: %d commands\n", len(pipeline.OnFailure.Commands))
	}
	if pipeline.WebhookTokenName != "" {
		fmt.Fprintf(w, "  webhook token: %s\n", pipeline.WebhookTokenName)
	}

	secretsFile, err := secretsPath(path, cmd.String("secrets"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	var secrets core.SecretMap
	if secretsFile != "" {
		secrets, err = core.LoadSecretMap(secretsFile)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintf(w, "secrets: %v\n", secrets.Names())
	}

	if err := pipeline.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if name := pipeline.WebhookTokenName; name != "" {
		if _, ok := secrets[name]; !ok {
			return cli.Exit(fmt.Sprintf("webhook token secret %q is not declared", name), 1)
		}
	}

	fmt.Fprintln(w, "ok")
	return nil
}
