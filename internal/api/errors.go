package api

import (
	"errors"
	"net/http"

	"newsdiet/internal/ingest"
	"newsdiet/internal/services"
	"newsdiet/internal/store"
)

// StatusCode maps an operation error to the HTTP status the admin API
// answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrFeedExists), errors.Is(err, ingest.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalid), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
