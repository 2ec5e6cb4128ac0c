// Package courier sends serialized JSON-RPC 2.0 requests to remote endpoints
// and interprets their responses.
//
// The outcome of each exchange is an Outcome, which carries either the
// result(s) of the exchange or an error describing why it failed. JSON-RPC
// errors reported by the endpoint are represented by *Error (or BatchError for
// batch responses). Failures below the JSON-RPC layer are represented by
// *TransportError, and unusable input or responses by InvalidInputError.
//
// See the transport/httptransport package for the HTTP transport.
package courier
