package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codeready-toolchain/docmask/pkg/services"
)

// HTTPError is returned by handlers and written as an ErrorResponse.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates an HTTPError with the given status code.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// errAuditDisabled is returned by run endpoints when no ledger is configured.
var errAuditDisabled = NewHTTPError(http.StatusServiceUnavailable, "audit ledger is disabled")

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *HTTPError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return NewHTTPError(http.StatusBadRequest, validErr.Error())
	}
	if errors.Is(err, services.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, services.ErrRunFinished) {
		return NewHTTPError(http.StatusConflict, "run already finished")
	}

	slog.Error("Unexpected service error", "error", err)
	return NewHTTPError(http.StatusInternalServerError, "internal server error")
}
