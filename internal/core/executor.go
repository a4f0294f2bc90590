package core

import (
	"context"
	"io"
	"os/exec"
)

// ExitSpawnFailed is the exit status reported for a command that could not
// be started at all.
const ExitSpawnFailed = 127

// Command is one shell command invocation.
type Command struct {
	Text   string
	Dir    string
	Env    []string // complete environment, NAME=value
	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner runs a command to completion and returns its exit status.
// A non-nil error means the command never started and the status is then
// ExitSpawnFailed, unless the error is an *OutputError: the command ran and
// the status is its own, but some of its output was lost.
type CommandRunner interface {
	RunCommand(ctx context.Context, cmd Command) (int, error)
}

// ShellRunner runs commands with sh -c.
type ShellRunner struct {
	Shell string // defaults to "sh"
}

func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "sh"}
}

func (r *ShellRunner) RunCommand(ctx context.Context, c Command) (int, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	// Run the command in a shell (sh -c "cmd")
	cmd := exec.CommandContext(ctx, shell, "-c", c.Text)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Start(); err != nil {
		return ExitSpawnFailed, err
	}

	err := cmd.Wait()
	state := cmd.ProcessState
	if state == nil {
		return 1, nil
	}

	// -1 means the process was killed by a signal
	switch code := state.ExitCode(); {
	case code > 0:
		return code, nil
	case code < 0:
		return 1, nil
	}

	// exited 0, but copying its stdout or stderr failed
	if err != nil {
		return 0, &OutputError{Err: err}
	}
	return 0, nil
}
