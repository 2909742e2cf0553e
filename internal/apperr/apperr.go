// Package apperr defines the error taxonomy shared by services and handlers.
// Operations return the first violated precondition wrapped around one of
// the kind sentinels; handlers map kinds to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication required")
	ErrAuthorization  = errors.New("not allowed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

func Validation(format string, a ...interface{}) error {
	return fmt.Errorf(format+": %w", append(a, ErrValidation)...)
}

func Authentication(format string, a ...interface{}) error {
	return fmt.Errorf(format+": %w", append(a, ErrAuthentication)...)
}

func Authorization(format string, a ...interface{}) error {
	return fmt.Errorf(format+": %w", append(a, ErrAuthorization)...)
}

func NotFound(format string, a ...interface{}) error {
	return fmt.Errorf(format+": %w", append(a, ErrNotFound)...)
}

func Conflict(format string, a ...interface{}) error {
	return fmt.Errorf(format+": %w", append(a, ErrConflict)...)
}

func IsValidation(err error) bool     { return errors.Is(err, ErrValidation) }
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }
func IsAuthorization(err error) bool  { return errors.Is(err, ErrAuthorization) }
func IsNotFound(err error) bool       { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool       { return errors.Is(err, ErrConflict) }

// HTTPStatus maps an error to its response status code. Unrecognized errors
// are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsAuthentication(err):
		return http.StatusUnauthorized
	case IsAuthorization(err):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
