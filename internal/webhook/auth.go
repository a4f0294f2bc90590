package webhook

import (
	"context"
	"net/http"

	"hookci/internal/core"
	"hookci/internal/security"
)

// TokenSource resolves the token a webhook for pipelineID must present.
type TokenSource interface {
	ExpectedToken(ctx context.Context, pipelineID string) (core.Secret, error)
}

// Locator maps a pipeline id to its manifest files.
type Locator interface {
	Locate(pipelineID string) (core.Locators, error)
}

// ManifestTokenSource reads the token from the pipeline's own secret
// manifest: the pipeline manifest names the secret through
// webhookTokenName.
type ManifestTokenSource struct {
	Locator Locator
}

func NewManifestTokenSource(l Locator) *ManifestTokenSource {
	return &ManifestTokenSource{Locator: l}
}

func (s *ManifestTokenSource) ExpectedToken(_ context.Context, pipelineID string) (core.Secret, error) {
	loc, err := s.Locator.Locate(pipelineID)
	if err != nil {
		return "", &TokenSourceError{Err: err}
	}

	name, ok, err := core.LoadWebhookTokenName(loc.Pipeline)
	if err != nil {
		return "", &TokenSourceError{Err: err}
	}
	if !ok {
		return "", ErrMissingWebhookTokenName
	}

	if loc.Secrets == "" {
		return "", &MissingTokenValueError{Name: name}
	}
	secrets, err := core.LoadSecretMap(loc.Secrets)
	if err != nil {
		return "", &TokenSourceError{Err: err}
	}

	token, ok := secrets[name]
	if !ok || token == "" {
		return "", &MissingTokenValueError{Name: name}
	}
	return token, nil
}

// StaticTokenSource uses one configured token for every pipeline.
type StaticTokenSource struct {
	Token core.Secret
}

func NewStaticTokenSource(token core.Secret) *StaticTokenSource {
	return &StaticTokenSource{Token: token}
}

func (s *StaticTokenSource) ExpectedToken(context.Context, string) (core.Secret, error) {
	if s.Token == "" {
		return "", ErrMissingTokenConfiguration
	}
	return s.Token, nil
}

// Gate authenticates webhook requests against a TokenSource.
type Gate struct {
	source TokenSource
}

func NewGate(source TokenSource) *Gate {
	return &Gate{source: source}
}

// Authenticate checks the X-Gitlab-Token header against the token expected
// for pipelineID.
func (g *Gate) Authenticate(ctx context.Context, h http.Header, pipelineID string) error {
	expected, err := g.source.ExpectedToken(ctx, pipelineID)
	if err != nil {
		return err
	}
	return ValidateToken(h, expected)
}

// ValidateToken compares the X-Gitlab-Token header with expected.
func ValidateToken(h http.Header, expected core.Secret) error {
	value, present := headerValue(h, TokenHeader)
	if !present {
		return ErrMissingTokenHeader
	}
	if !security.IsHeaderText(value) {
		return ErrInvalidTokenHeader
	}
	if !security.TokensEqual(value, expected.Reveal()) {
		return ErrInvalidToken
	}
	return nil
}
