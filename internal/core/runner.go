package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hookci/internal/log"
	"hookci/pkg/utils"
)

var tracer = otel.Tracer("hookci/internal/core")

// FailureHookStep is the step name the failure hook's output is logged under.
const FailureHookStep = "on-failure"

type Status int

const (
	StatusSuccess Status = iota
	StatusStepFailed
)

func (s Status) String() string {
	if s == StatusStepFailed {
		return "step_failed"
	}
	return "success"
}

// Outcome is the result of a pipeline that was loaded and ran. Step and
// ExitCode are only set when Status is StatusStepFailed.
type Outcome struct {
	Status   Status
	Step     string
	ExitCode int
}

// Err returns a *StepFailedError for a failed outcome and nil otherwise.
func (o Outcome) Err() error {
	if o.Status != StatusStepFailed {
		return nil
	}
	return &StepFailedError{Step: o.Step, ExitCode: o.ExitCode}
}

// StepLogs hands out a writer capturing the output of one step. index is the
// step's position in the manifest; the failure hook uses len(steps).
type StepLogs interface {
	StepWriter(index int, step string) (io.WriteCloser, error)
}

// Options tune a single execution. The zero value runs without secrets in
// the manifest's directory and discards command output.
type Options struct {
	SecretsPath string            // secret manifest; none when empty
	Workdir     string            // defaults to the pipeline manifest's directory
	Env         map[string]string // extra non-secret variables
	Logs        StepLogs          // per-step output capture
	Output      io.Writer         // receives the output of every step
}

// Runner executes pipeline manifests one command at a time.
type Runner struct {
	Executor CommandRunner
	Environ  func() []string // inherited environment, defaults to os.Environ
}

func NewRunner() *Runner {
	return &Runner{
		Executor: NewShellRunner(),
		Environ:  os.Environ,
	}
}

// ExecutePipeline loads the pipeline at pipelinePath and runs its steps in
// order, stopping at the first failing command. A non-nil error
// (*ManifestError or *SecretsError) means nothing ran; otherwise the
// Outcome tells whether a step failed.
func (r *Runner) ExecutePipeline(ctx context.Context, pipelinePath string, opts Options) (Outcome, error) {
	l := log.FromContext(ctx).With("component", "runner", "manifest", pipelinePath)

	ctx, span := tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.String("pipeline.manifest", pipelinePath),
	))
	defer span.End()

	pipeline, err := LoadPipeline(pipelinePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manifest")
		return Outcome{}, &ManifestError{Err: err}
	}
	span.SetAttributes(attribute.String("pipeline.name", pipeline.Name))

	secrets := SecretMap{}
	if opts.SecretsPath != "" {
		secrets, err = LoadSecretMap(opts.SecretsPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "secrets")
			return Outcome{}, &SecretsError{Err: err}
		}
	}

	digest, err := utils.HashFile(pipelinePath)
	if err != nil {
		l.Warn("cannot hash manifest", "error", err)
	}

	run := &pipelineRun{
		runner:  r,
		l:       l.With("pipeline", pipeline.Name),
		dir:     workdir(pipelinePath, opts.Workdir),
		env:     r.environment(opts.Env, secrets),
		secrets: secrets,
		opts:    opts,
	}
	run.l.Info("starting pipeline", "steps", len(pipeline.Steps), "dir", run.dir,
		"secrets", len(secrets), "digest", digest)

	for i, step := range pipeline.Steps {
		code := run.runStep(ctx, i, step)
		if code == 0 {
			continue
		}

		run.l.Warn("step failed", "step", step.Name, "status", code)
		if pipeline.OnFailure != nil {
			run.runFailureHook(ctx, len(pipeline.Steps), pipeline.OnFailure)
		}

		span.SetStatus(codes.Error, "step failed")
		span.SetAttributes(attribute.String("pipeline.failed_step", step.Name), attribute.Int("pipeline.exit_code", code))
		return Outcome{Status: StatusStepFailed, Step: step.Name, ExitCode: code}, nil
	}

	run.l.Info("pipeline finished successfully")
	return Outcome{Status: StatusSuccess}, nil
}

func (r *Runner) environment(extra map[string]string, secrets SecretMap) []string {
	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := environ()

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	// secrets last: os/exec keeps the last value of a duplicated key
	return append(env, secrets.Environ()...)
}

func (r *Runner) executor() CommandRunner {
	if r.Executor == nil {
		return NewShellRunner()
	}
	return r.Executor
}

func workdir(pipelinePath, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := filepath.Dir(pipelinePath); dir != "" {
		return dir
	}
	return "."
}

// pipelineRun is the state of one execution. It holds the secret map and
// must never be logged as a whole.
type pipelineRun struct {
	runner  *Runner
	l       *slog.Logger
	dir     string
	env     []string
	secrets SecretMap
	opts    Options
}

// runStep runs the step's commands in order and returns the exit status of
// the first failing one, or 0.
func (p *pipelineRun) runStep(ctx context.Context, index int, step Step) int {
	ctx, span := tracer.Start(ctx, "pipeline.step", trace.WithAttributes(
		attribute.String("step.name", step.Name),
		attribute.Int("step.index", index),
	))
	defer span.End()

	p.l.Info("running step", "step", step.Name)

	out, closeOut := p.output(index, step.Name)
	defer closeOut()

	for _, command := range step.Commands {
		code := p.runCommand(ctx, command, out)
		if code != 0 {
			span.SetStatus(codes.Error, "command failed")
			span.SetAttributes(attribute.Int("step.exit_code", code))
			return code
		}
	}
	return 0
}

// runFailureHook runs every hook command regardless of earlier hook
// failures. Nothing it does changes the pipeline's outcome.
func (p *pipelineRun) runFailureHook(ctx context.Context, index int, hook *FailureHook) {
	ctx, span := tracer.Start(ctx, "pipeline.on_failure")
	defer span.End()

	p.l.Info("running failure hook", "commands", len(hook.Commands))

	out, closeOut := p.output(index, FailureHookStep)
	defer closeOut()

	for _, command := range hook.Commands {
		if code := p.runCommand(ctx, command, out); code != 0 {
			p.l.Warn("failure hook command failed", "status", code)
		}
	}
}

func (p *pipelineRun) runCommand(ctx context.Context, text string, out *redactWriter) int {
	c := Command{Text: text, Dir: p.dir, Env: p.env}
	if out != nil {
		c.Stdout = out
		c.Stderr = out
	}

	code, err := p.runner.executor().RunCommand(ctx, c)
	var outErr *OutputError
	switch {
	case errors.As(err, &outErr):
		p.l.Warn("command output was not fully captured", "error", outErr.Err)
	case err != nil:
		p.l.Error("cannot start command", "error", err)
		code = ExitSpawnFailed
	}

	if out != nil {
		if ferr := out.Flush(); ferr != nil {
			p.l.Warn("cannot write command output", "error", ferr)
		}
	}
	return code
}

// output builds the redacting writer for one step. It returns nil when
// output is neither captured nor forwarded.
func (p *pipelineRun) output(index int, step string) (*redactWriter, func()) {
	var writers []io.Writer
	var logFile io.WriteCloser

	if p.opts.Logs != nil {
		f, err := p.opts.Logs.StepWriter(index, step)
		if err != nil {
			p.l.Warn("cannot open step log", "step", step, "error", err)
		} else {
			logFile = f
			writers = append(writers, f)
		}
	}
	if p.opts.Output != nil {
		writers = append(writers, p.opts.Output)
	}

	if len(writers) == 0 {
		return nil, func() {}
	}

	out := newRedactWriter(io.MultiWriter(writers...), p.secrets)
	return out, func() {
		if logFile != nil {
			if err := logFile.Close(); err != nil {
				p.l.Warn("cannot close step log", "step", step, "error", err)
			}
		}
	}
}
