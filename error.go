package courier

import (
	"encoding/json"
	"strings"

	"github.com/dogmatiq/courier/internal/jsonx"
)

// GenericErrorMessage is the message of the error produced when a response
// carries neither a result nor an error.
const GenericErrorMessage = "Something wrong happened."

// messagePrefix is removed from the start of remote error messages.
const messagePrefix = "Error: "

// Error is a Go error that describes a JSON-RPC error reported by a remote
// endpoint.
type Error struct {
	code    ErrorCode
	message string
	data    json.RawMessage
}

// NewError returns a new JSON-RPC error.
//
// The options are applied in order.
func NewError(code ErrorCode, message string, options ...ErrorOption) *Error {
	e := &Error{
		code:    code,
		message: message,
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

// newRemoteError returns the error described by an "error" member of a
// response.
func newRemoteError(info ErrorInfo) *Error {
	return NewError(
		info.Code,
		strings.TrimPrefix(info.Message, messagePrefix),
		WithData(info.Data),
	)
}

// Code returns the JSON-RPC error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the error message, as sent by the endpoint.
func (e *Error) Message() string {
	return e.message
}

// Data returns the JSON representation of the user-defined data associated
// with the error, or nil if there is none.
func (e *Error) Data() json.RawMessage {
	return e.data
}

// UnmarshalData unmarshals the user-defined data into v.
//
// ok is false if there is no user-defined data associated with the error.
func (e *Error) UnmarshalData(v any, options ...UnmarshalOption) (ok bool, _ error) {
	if len(e.data) == 0 {
		return false, nil
	}

	return true, jsonx.Unmarshal(e.data, v, options...)
}

// Error returns a description of the error.
func (e *Error) Error() string {
	return describeError(e.code, e.message)
}

// ErrorOption is an option that provides further information about an error.
type ErrorOption func(*Error)

// WithData is an ErrorOption that associates the JSON representation of
// user-defined data with an error.
func WithData(data json.RawMessage) ErrorOption {
	return func(e *Error) {
		if len(data) != 0 {
			e.data = data
		}
	}
}

// ErrorInfo is the "error" member of a JSON-RPC response. It is not a Go
// error.
type ErrorInfo struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e ErrorInfo) String() string {
	return describeError(e.Code, e.Message)
}
