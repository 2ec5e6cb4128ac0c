// Package httptransport provides an HTTP-based JSON-RPC transport.
//
// Each exchange is a single HTTP POST request carrying an already-serialized
// JSON-RPC request or batch. The response body is interpreted according to
// the JSON-RPC single and batch response conventions and the outcome is
// delivered either synchronously or asynchronously, as configured when the
// transport is constructed.
package httptransport
