package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"hookci/internal/core"
	"hookci/internal/log"
	"hookci/internal/storage"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute a pipeline manifest locally",
		ArgsUsage: "<pipeline.yaml>",
		Action:    runPipeline,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "secrets",
				Usage: "secret manifest (default: secrets.yaml next to the pipeline, if present)",
			},
			&cli.StringFlag{
				Name:  "workdir",
				Usage: "working directory for every command (default: the pipeline's directory)",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "capture each step's output under this directory",
			},
		},
	}
}

func runPipeline(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("missing pipeline manifest argument", 1)
	}

	secrets, err := secretsPath(path, cmd.String("secrets"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	runID := uuid.NewString()
	opts := core.Options{
		SecretsPath: secrets,
		Workdir:     cmd.String("workdir"),
		Env: map[string]string{
			"HOOKCI_PIPELINE": pipelineName(path),
			"HOOKCI_RUN_ID":   runID,
		},
		Output: cmd.Root().Writer,
	}
	if dir := cmd.String("log-dir"); dir != "" {
		run, err := storage.NewLogStorage(dir).OpenRun(pipelineName(path), runID)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		opts.Logs = run
	}

	outcome, err := core.NewRunner().ExecutePipeline(ctx, path, opts)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := outcome.Err(); err != nil {
		return cli.Exit(err.Error(), outcome.ExitCode)
	}
	log.FromContext(ctx).Info("pipeline succeeded", "path", path, "run", runID)
	return nil
}

// secretsPath returns the explicit secret manifest, or the default one next
// to the pipeline manifest when that file exists.
func secretsPath(pipeline, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidate := filepath.Join(filepath.Dir(pipeline), storage.SecretsFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking secret manifest: %w", err)
	}
	return "", nil
}

// pipelineName names a local run after the manifest's directory, which is
// the pipeline id under the server layout.
func pipelineName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(filepath.Dir(path))
	}
	return filepath.Base(filepath.Dir(abs))
}
