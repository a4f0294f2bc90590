package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"hookci/internal/core"
	"hookci/internal/storage"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusAccepted},
		{ErrMissingEventHeader, http.StatusBadRequest},
		{ErrInvalidEventHeader, http.StatusBadRequest},
		{&UnsupportedEventError{Value: "Issue Hook"}, http.StatusUnprocessableEntity},
		{ErrMissingTokenHeader, http.StatusUnauthorized},
		{ErrInvalidTokenHeader, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrMissingWebhookTokenName, http.StatusUnauthorized},
		{ErrMissingTokenConfiguration, http.StatusUnauthorized},
		{&MissingTokenValueError{Name: "T"}, http.StatusUnauthorized},
		{&TokenSourceError{Err: fmt.Errorf("reading pipeline manifest: %w", os.ErrNotExist)}, http.StatusUnauthorized},
		{&TokenSourceError{Err: fmt.Errorf("%w: %q", storage.ErrInvalidPipelineID, "..")}, http.StatusUnauthorized},
		{&TokenSourceError{Err: &core.InvalidKindError{Expected: "pipeline", Actual: "secret"}}, http.StatusInternalServerError},
		{&TokenSourceError{Err: &core.DuplicateSecretError{Name: "A"}}, http.StatusInternalServerError},
		{fmt.Errorf("%w: %q", storage.ErrInvalidPipelineID, "a/b"), http.StatusUnauthorized},
		{ErrTriggerConsumed, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}
