package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"hookci/internal/core"
	"hookci/internal/log"
	"hookci/internal/storage"
	"hookci/internal/webhook"
)

// PipelineExecutor runs triggered pipelines in the background, one
// goroutine per trigger. Runs of the same pipeline are not serialized.
type PipelineExecutor struct {
	Runner *core.Runner
	Layout *storage.Layout
	Logs   *storage.LogStorage // nil disables output capture

	wg sync.WaitGroup
}

// Execute starts the run and returns once it is under way. The run is
// detached from ctx's cancellation, so it outlives the HTTP request.
func (e *PipelineExecutor) Execute(ctx context.Context, t *webhook.Trigger) error {
	loc, err := e.Layout.Locate(t.PipelineID())
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	l := log.FromContext(ctx).With("component", "executor", "pipeline", t.PipelineID(), "run", runID)

	opts := core.Options{
		SecretsPath: loc.Secrets,
		Env: map[string]string{
			"HOOKCI_PIPELINE": t.PipelineID(),
			"HOOKCI_EVENT":    t.Event().String(),
			"HOOKCI_RUN_ID":   runID,
		},
	}
	if e.Logs != nil {
		run, err := e.Logs.OpenRun(t.PipelineID(), runID)
		if err != nil {
			l.Warn("step output will not be captured", "error", err)
		} else {
			opts.Logs = run
		}
	}

	runCtx := log.IntoContext(context.WithoutCancel(ctx), l)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(runCtx, l, loc.Pipeline, opts)
	}()

	l.Info("pipeline run started")
	return nil
}

func (e *PipelineExecutor) run(ctx context.Context, l *slog.Logger, pipelinePath string, opts core.Options) {
	outcome, err := e.Runner.ExecutePipeline(ctx, pipelinePath, opts)
	if err != nil {
		l.Error("pipeline did not run", "error", err)
		return
	}
	if outcome.Status == core.StatusStepFailed {
		l.Warn("pipeline failed", "step", outcome.Step, "status", outcome.ExitCode)
		return
	}
	l.Info("pipeline succeeded")
}

// Wait blocks until every started run has finished.
func (e *PipelineExecutor) Wait() {
	e.wg.Wait()
}
