package httptransport

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dogmatiq/courier"
	"go.uber.org/atomic"
)

// Client is a JSON-RPC client that builds call payloads and sends them using
// a Transport.
type Client struct {
	// Transport is the transport used to send payloads.
	Transport *Transport

	// prevID is the ID of the last call request sent. It is incremented by one
	// to generate the next request ID.
	prevID atomic.Uint64
}

// NewClient returns a client that sends payloads using t.
func NewClient(t *Transport) *Client {
	return &Client{Transport: t}
}

// Call invokes a JSON-RPC method and unmarshals its result into result.
//
// If the endpoint responds with a JSON-RPC error, the returned error is a
// *courier.Error.
func (c *Client) Call(
	ctx context.Context,
	method string,
	params, result any,
) error {
	payload, err := c.buildCall(c.prevID.Inc(), method, params)
	if err != nil {
		panic(fmt.Sprintf("unable to call JSON-RPC method (%s): %s", method, err))
	}

	if !validateResultParameter(result) {
		panic(fmt.Sprintf(
			"unable to call JSON-RPC method (%s): result must be a non-nil pointer",
			method,
		))
	}

	out, err := c.Transport.Send(ctx, payload).Wait(ctx)
	if err != nil {
		return fmt.Errorf("unable to call JSON-RPC method (%s): %w", method, err)
	}

	if out.Err != nil {
		if rpcErr, ok := out.Err.(*courier.Error); ok {
			return rpcErr
		}

		return fmt.Errorf("unable to call JSON-RPC method (%s): %w", method, out.Err)
	}

	if out.IsBatch {
		return fmt.Errorf("unable to process JSON-RPC response (%s): unexpected JSON-RPC batch response", method)
	}

	if err := out.UnmarshalResult(result, courier.AllowUnknownFields(true)); err != nil {
		return fmt.Errorf("unable to process JSON-RPC response (%s): %w", method, err)
	}

	return nil
}

// BatchCall is a single call within a batch.
type BatchCall struct {
	// Method is the name of the method to invoke.
	Method string

	// Params are the parameters to the method.
	Params any

	// Result is a pointer to the value into which the result is unmarshaled.
	// It may be nil if the result is not needed.
	Result any
}

// CallBatch invokes several JSON-RPC methods in a single exchange.
//
// Results are correlated with calls by their position in the batch response.
// If the endpoint reports JSON-RPC errors the returned error is a
// courier.BatchError, after any results that are present have been
// unmarshaled.
func (c *Client) CallBatch(ctx context.Context, calls ...BatchCall) error {
	requests := make([]courier.Request, len(calls))

	for i, call := range calls {
		req, err := courier.NewCallRequest(c.prevID.Inc(), call.Method, call.Params)
		if err != nil {
			panic(fmt.Sprintf("unable to call JSON-RPC method (%s): %s", call.Method, err))
		}

		if call.Result != nil && !validateResultParameter(call.Result) {
			panic(fmt.Sprintf(
				"unable to call JSON-RPC method (%s): result must be a non-nil pointer",
				call.Method,
			))
		}

		requests[i] = req
	}

	payload, err := courier.MarshalBatch(requests...)
	if err != nil {
		panic(fmt.Sprintf("unable to call JSON-RPC batch: %s", err))
	}

	out, err := c.Transport.Send(ctx, payload).Wait(ctx)
	if err != nil {
		return fmt.Errorf("unable to call JSON-RPC batch: %w", err)
	}

	batchErr, _ := out.Err.(courier.BatchError)
	if out.Err != nil && batchErr == nil {
		return fmt.Errorf("unable to call JSON-RPC batch: %w", out.Err)
	}

	if !out.IsBatch {
		return errors.New("unable to process JSON-RPC batch response: expected a batch response")
	}

	if len(out.Results) != len(calls) {
		return fmt.Errorf(
			"unable to process JSON-RPC batch response: expected %d result(s), got %d",
			len(calls),
			len(out.Results),
		)
	}

	for i, call := range calls {
		if out.Results[i] == nil {
			if batchErr == nil {
				return fmt.Errorf(
					"unable to process JSON-RPC batch response (%s): no result for call at index %d",
					call.Method,
					i,
				)
			}
			continue
		}

		if call.Result == nil {
			continue
		}

		if _, err := out.UnmarshalResultAt(i, call.Result, courier.AllowUnknownFields(true)); err != nil {
			return fmt.Errorf("unable to process JSON-RPC batch response (%s): %w", call.Method, err)
		}
	}

	if batchErr != nil {
		return batchErr
	}

	return nil
}

// buildCall returns the payload for a single call request.
func (c *Client) buildCall(id uint64, method string, params any) (string, error) {
	req, err := courier.NewCallRequest(id, method, params)
	if err != nil {
		return "", err
	}

	return req.Marshal()
}

// validateResultParameter returns true if v is a valid variable into which a
// JSON-RPC result value can be written.
func validateResultParameter(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Ptr && !rv.IsNil()
}
