package webhook

import (
	"errors"
	"fmt"
)

var (
	ErrMissingEventHeader        = errors.New("missing event header")
	ErrInvalidEventHeader        = errors.New("event header is not valid text")
	ErrMissingTokenHeader        = errors.New("missing token header")
	ErrInvalidTokenHeader        = errors.New("token header is not valid text")
	ErrInvalidToken              = errors.New("invalid token")
	ErrMissingWebhookTokenName   = errors.New("pipeline declares no webhook token")
	ErrMissingTokenConfiguration = errors.New("no webhook token configured")
	ErrTriggerConsumed           = errors.New("trigger already consumed")
)

// UnsupportedEventError reports an event type the service does not handle.
type UnsupportedEventError struct {
	Value string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event %q", e.Value)
}

// MissingTokenValueError reports that the secret named by a pipeline's
// webhookTokenName is absent from its secret manifest, or empty.
type MissingTokenValueError struct {
	Name string
}

func (e *MissingTokenValueError) Error() string {
	return fmt.Sprintf("webhook token secret %q not found", e.Name)
}

// TokenSourceError wraps a manifest load failure hit while resolving the
// expected token.
type TokenSourceError struct {
	Err error
}

func (e *TokenSourceError) Error() string { return "resolving webhook token: " + e.Err.Error() }

func (e *TokenSourceError) Unwrap() error { return e.Err }
