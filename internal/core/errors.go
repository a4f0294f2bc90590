package core

import (
	"errors"
	"fmt"
)

// ParseError reports a manifest that is not a well-formed document.
type ParseError struct {
	Locator string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("malformed manifest: %v", e.Err)
	}
	return fmt.Sprintf("malformed manifest %s: %v", e.Locator, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidKindError reports a manifest whose kind tag is not the one the
// loader expects. Actual is empty when the tag is missing.
type InvalidKindError struct {
	Expected string
	Actual   string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid manifest kind %q, expected %q", e.Actual, e.Expected)
}

// DuplicateSecretError reports a secret name declared more than once.
type DuplicateSecretError struct {
	Name string
}

func (e *DuplicateSecretError) Error() string {
	return fmt.Sprintf("duplicate secret name %q", e.Name)
}

// ManifestError wraps a pipeline manifest load failure seen by the engine.
// Nothing ran.
type ManifestError struct {
	Err error
}

func (e *ManifestError) Error() string { return "loading pipeline: " + e.Err.Error() }

func (e *ManifestError) Unwrap() error { return e.Err }

// SecretsError wraps a secret manifest load failure seen by the engine.
// Nothing ran.
type SecretsError struct {
	Err error
}

func (e *SecretsError) Error() string { return "loading secrets: " + e.Err.Error() }

func (e *SecretsError) Unwrap() error { return e.Err }

// StepFailedError is the error form of a failed Outcome.
type StepFailedError struct {
	Step     string
	ExitCode int
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step %q failed with exit status %d", e.Step, e.ExitCode)
}

// OutputError reports that a command ran but its output could not be
// written out in full.
type OutputError struct {
	Err error
}

func (e *OutputError) Error() string { return "copying command output: " + e.Err.Error() }

func (e *OutputError) Unwrap() error { return e.Err }

func withLocator(err error, path string) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Locator = path
		return perr
	}
	return fmt.Errorf("%s: %w", path, err)
}
