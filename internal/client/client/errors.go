package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/medialog/internal/common"
)

var (
	ErrUnavailable   = errors.New("connection error")
	ErrAdminRequired = errors.New("admin access required")
	ErrServer        = errors.New("server error")

	ErrUnauthorized = common.ErrorUnauthorized
	ErrNotFound     = common.ErrorNotFound
	ErrValidation   = common.ErrorValidation
)

// APIError is a non-2xx response of the REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsTransient reports whether err is worth retrying later: the server was
// unreachable, answered with a 5xx, or the session is missing or expired.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrAdminRequired) ||
		errors.Is(err, ErrUnauthorized)
}
