package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned after the backend answered 401. The session
	// has already been cleared by then.
	ErrUnauthorized  = errors.New("apiclient: unauthorized")
	ErrShareNotFound = errors.New("apiclient: shared dashboard not found")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.Code, body)
}

func (e *StatusError) StatusCode() int { return e.Code }

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsStatus reports whether err carries the given backend status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
