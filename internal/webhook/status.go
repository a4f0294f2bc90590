package webhook

import (
	"errors"
	"io/fs"
	"net/http"

	"hookci/internal/storage"
)

// StatusCode maps a HandleWebhook error to the HTTP status returned to the
// caller. Every authentication failure, unknown pipelines included, maps to
// 401 so the response does not reveal which check failed.
func StatusCode(err error) int {
	var (
		unsupported *UnsupportedEventError
		missingVal  *MissingTokenValueError
		sourceErr   *TokenSourceError
	)

	switch {
	case err == nil:
		return http.StatusAccepted
	case errors.Is(err, storage.ErrInvalidPipelineID):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMissingEventHeader), errors.Is(err, ErrInvalidEventHeader):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMissingTokenHeader),
		errors.Is(err, ErrInvalidTokenHeader),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrMissingWebhookTokenName),
		errors.Is(err, ErrMissingTokenConfiguration),
		errors.As(err, &missingVal):
		return http.StatusUnauthorized
	case errors.As(err, &sourceErr):
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
