package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindServer     Kind = "server"
)

// CodeInvalidToken is the error code the backend returns when the session
// cookie is expired or forged.
const CodeInvalidToken = "INVALID_TOKEN"

// Error is a failed API call.
//
// Status is 0 for network failures. Code and Message come from the
// {"error", "message"} response body when the server sent one.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
	Kind    Kind
	Err     error // underlying transport error, network failures only
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request may succeed.
func (e *Error) Temporary() bool {
	return e.Kind == KindNetwork || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// kindForStatus maps an HTTP status to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// IsInvalidToken reports whether err carries the INVALID_TOKEN code.
func IsInvalidToken(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Code == CodeInvalidToken
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}
