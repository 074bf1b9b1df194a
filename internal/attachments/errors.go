package attachments

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/intake/pkg/storage"
)

// Domain errors for attachment operations.
var (
	ErrNotFound      = errors.New("file not found")
	ErrStoreWrite    = errors.New("attachment store write failed")
	ErrStoreRead     = errors.New("attachment store read failed")
	ErrInvalidObject = errors.New("invalid attachment")
)

// MapHTTPStatus maps attachment errors to HTTP status codes. Unwrapped
// storage errors fall through to storage.MapHTTPStatus.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidObject):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreWrite), errors.Is(err, ErrStoreRead):
		return http.StatusBadGateway
	default:
		return storage.MapHTTPStatus(err)
	}
}
