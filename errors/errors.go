package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrValidation       = fmt.Errorf("invalid payload")
	ErrMissingContent   = fmt.Errorf("message content is required")
	ErrGroupNotFound    = fmt.Errorf("group not found")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrAlertNotFound    = fmt.Errorf("alert not found")
	ErrConnNotFound     = fmt.Errorf("connection not found")
	ErrNotAMember       = fmt.Errorf("sender is not a member of the group")
	ErrUnidentified     = fmt.Errorf("connection has no bound identity")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrTerminalState    = fmt.Errorf("alert is already in a terminal state")
	ErrCorruptedRecords = fmt.Errorf("stored records could not be decoded")
)

// MapToHTTPStatus translates the error taxonomy to an HTTP status code.
// Validation errors map to 400, not-found to 404, authorization to 403,
// everything else (persistence included) to 500.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingContent), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrAlertNotFound),
		errors.Is(err, ErrConnNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, ErrUnidentified), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTerminalState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
