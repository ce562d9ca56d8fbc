package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound matches a NotFoundError with errors.Is.
var ErrNotFound = errors.New("remote repository or path does not exist")

// NotFoundError is returned when an upload is answered with 404. It is not
// retryable: the repository, branch or path is wrong.
type NotFoundError struct {
	Repo string
	Path string
	Body string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s/%s: %s", ErrNotFound, e.Repo, e.Path, e.Body)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// APIError is any other non-success response from the contents API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API error: HTTP %d: %s", e.Status, e.Body)
}

// TransportError wraps a failure to get any response at all.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
