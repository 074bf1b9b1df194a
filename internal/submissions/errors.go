package submissions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JaimeStill/intake/internal/attachments"
)

// Domain errors for submission operations.
var (
	ErrNotFound            = errors.New("submission not found")
	ErrDuplicate           = errors.New("submission id already exists")
	ErrValidation          = errors.New("validation failed")
	ErrPersistence         = errors.New("submission persistence failed")
	ErrIdentifierExhausted = errors.New("could not allocate a unique submission id")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrInvalidFile         = errors.New("invalid file")
)

// ValidationError lists every field-level problem found in a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// MapHTTPStatus maps submission errors to HTTP status codes, deferring to
// attachments.MapHTTPStatus for anything else.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrPersistence):
		return http.StatusInternalServerError
	}
	return attachments.MapHTTPStatus(err)
}
