package courier

import "fmt"

// ErrorCode is a JSON-RPC error code, as reported by a remote endpoint.
//
// The JSON-RPC specification reserves the codes from and including -32768 to
// -32000 for pre-defined errors. Those that have a meaning assigned by the
// specification are defined as constants below.
type ErrorCode int

const (
	// UnspecifiedErrorCode is the code of an error that was not assigned a
	// code, such as when a response carries neither a result nor an error.
	UnspecifiedErrorCode ErrorCode = 0

	// ParseErrorCode indicates that the server failed to parse the request.
	ParseErrorCode ErrorCode = -32700

	// InvalidRequestCode indicates that the server received a well-formed but
	// otherwise invalid request.
	InvalidRequestCode ErrorCode = -32600

	// MethodNotFoundCode indicates that the requested method does not exist.
	MethodNotFoundCode ErrorCode = -32601

	// InvalidParametersCode indicates that the request parameters were
	// malformed or invalid.
	InvalidParametersCode ErrorCode = -32602

	// InternalErrorCode indicates some other error within the server.
	InternalErrorCode ErrorCode = -32603
)

// IsReserved returns true if c falls within the range of codes reserved by the
// JSON-RPC specification.
func (c ErrorCode) IsReserved() bool {
	return c >= -32768 && c <= -32000
}

// IsServerError returns true if c falls within the range reserved for
// implementation-defined server errors.
func (c ErrorCode) IsServerError() bool {
	return c >= -32099 && c <= -32000
}

// IsPredefined returns true if c has a meaning assigned by the JSON-RPC
// specification.
func (c ErrorCode) IsPredefined() bool {
	switch c {
	case ParseErrorCode,
		InvalidRequestCode,
		MethodNotFoundCode,
		InvalidParametersCode,
		InternalErrorCode:
		return true
	default:
		return false
	}
}

// String returns a brief description of the code.
func (c ErrorCode) String() string {
	switch c {
	case UnspecifiedErrorCode:
		return "unspecified error"
	case ParseErrorCode:
		return "parse error"
	case InvalidRequestCode:
		return "invalid request"
	case MethodNotFoundCode:
		return "method not found"
	case InvalidParametersCode:
		return "invalid parameters"
	case InternalErrorCode:
		return "internal server error"
	}

	if c.IsServerError() {
		return "server error"
	}

	if c.IsReserved() {
		return "undefined reserved error"
	}

	return "application error"
}

// describeError returns a one-line description of a remote error.
func describeError(code ErrorCode, message string) string {
	if message == "" || message == code.String() {
		return fmt.Sprintf("[%d] %s", code, code)
	}

	if code.IsPredefined() {
		return fmt.Sprintf("[%d] %s: %s", code, code, message)
	}

	// Descriptions of codes without a predefined meaning add nothing useful.
	return fmt.Sprintf("[%d] %s", code, message)
}
