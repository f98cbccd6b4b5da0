package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated matches every *AuthenticationError via errors.Is.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrMissingToken is returned by Login when the server accepted the
// credentials but sent no token.
var ErrMissingToken = errors.New("login response carried no token")

var errNotJSON = errors.New("body is not JSON")

// AuthenticationError is returned when the API answers 401. The stored
// session has already been cleared when the caller sees it.
type AuthenticationError struct {
	Endpoint string
	// SessionDropped is true when a session existed and was invalidated.
	SessionDropped bool
}

func (e *AuthenticationError) Error() string {
	if e.SessionDropped {
		return "session expired, please log in again"
	}
	return "authentication failed: invalid credentials"
}

// Is makes errors.Is(err, ErrUnauthenticated) true.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthenticated
}

// HTTPError is any other non-2xx answer.
type HTTPError struct {
	Status     int
	StatusText string
	// Body holds the start of the response body, for logs.
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("error %d: %s", e.Status, e.StatusText)
}

// NetworkError is a transport failure: DNS, refused connection, TLS, timeout.
type NetworkError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a successful response whose body is not the expected JSON.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
