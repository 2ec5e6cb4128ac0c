package courier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONRPCVersion is the version that appears in the "jsonrpc" field of
// JSON-RPC 2.0 requests.
const JSONRPCVersion = "2.0"

// Request is a JSON-RPC request that is yet to be serialized into a payload.
type Request struct {
	// Version is the JSON-RPC version, typically JSONRPCVersion.
	Version string `json:"jsonrpc"`

	// ID identifies requests that expect a response. If it is nil the request
	// is a notification.
	ID json.RawMessage `json:"id,omitempty"`

	// Method is the name of the RPC method to be invoked.
	Method string `json:"method"`

	// Parameters holds the parameter values to be used during the invocation
	// of the method. It must be a JSON array, object, or be omitted.
	Parameters json.RawMessage `json:"params,omitempty"`
}

// NewCallRequest returns a new request for a call to the given method.
func NewCallRequest[ID ~uint32 | ~uint64 | ~int | ~string](
	id ID,
	method string,
	params any,
) (Request, error) {
	idJSON, err := json.Marshal(id)
	if err != nil {
		// CODE COVERAGE: Marshaling a string or integer never fails.
		panic(err)
	}

	req, err := NewNotifyRequest(method, params)
	req.ID = idJSON

	return req, err
}

// NewNotifyRequest returns a new notification request for the given method.
func NewNotifyRequest(method string, params any) (Request, error) {
	req := Request{
		Version: JSONRPCVersion,
		Method:  method,
	}

	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("unable to marshal request parameters: %w", err)
		}

		req.Parameters = p
	}

	return req, nil
}

// IsNotification returns true if r is a notification, as opposed to a call
// that expects a response.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Validate checks that the request would be accepted by a conforming
// JSON-RPC 2.0 server.
func (r Request) Validate() error {
	if r.Version != JSONRPCVersion {
		return fmt.Errorf(`request version must be "%s"`, JSONRPCVersion)
	}

	p := bytes.TrimSpace(r.Parameters)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		return nil
	}

	if p[0] != '{' && p[0] != '[' {
		return errors.New("parameters must be an array, an object, or null")
	}

	return nil
}

// Marshal returns the JSON payload for a single request.
func (r Request) Marshal() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// MarshalBatch returns the JSON payload for a batch of requests.
func MarshalBatch(requests ...Request) (string, error) {
	if len(requests) == 0 {
		return "", errors.New("batches must contain at least one request")
	}

	for i, r := range requests {
		if err := r.Validate(); err != nil {
			return "", fmt.Errorf("request at index %d is invalid: %w", i, err)
		}
	}

	data, err := json.Marshal(requests)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
