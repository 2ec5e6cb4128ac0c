package courier

import (
	"fmt"
	"net/http"
	"strings"
)

// InvalidInputError indicates that the input to an exchange, or the response
// to it, could not be used.
//
// It is produced when the payload is not a string, when a response body is
// not valid JSON, or when the "error" member of a response is malformed.
type InvalidInputError struct {
	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e InvalidInputError) Error() string {
	return e.Message
}

// Unwrap returns the cause of e, if known.
func (e InvalidInputError) Unwrap() error {
	return e.Cause
}

// TransportError indicates a failure below the JSON-RPC layer, such as a
// refused connection, a timeout, a DNS failure or a non-2xx HTTP status.
//
// A response body is never interpreted when a TransportError occurs.
type TransportError struct {
	// StatusCode is the HTTP status code of the response, or zero if no
	// response was received.
	StatusCode int

	// Cause is the error produced by the HTTP client, if any.
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}

	return fmt.Sprintf(
		"unexpected HTTP %d (%s) status code",
		e.StatusCode,
		http.StatusText(e.StatusCode),
	)
}

// Unwrap returns the error produced by the HTTP client, if any.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// BatchError is the error delivered for a batch response that carries at least
// one JSON-RPC error.
//
// The errors are in the order they were encountered. They are not positioned
// by the index of the request that produced them.
type BatchError []*Error

func (e BatchError) Error() string {
	var w strings.Builder

	fmt.Fprintf(&w, "%d error(s) in batch response", len(e))

	for i, err := range e {
		if i == 0 {
			w.WriteString(": ")
		} else {
			w.WriteString(", ")
		}

		w.WriteString(err.Error())
	}

	return w.String()
}

// Unwrap returns the individual errors.
func (e BatchError) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}
