// Package payload extracts descriptive information from serialized JSON-RPC
// requests for use in logs, traces and metrics.
package payload

import (
	"encoding/json"

	"github.com/dogmatiq/courier/internal/jsonx"
)

// Info describes a serialized JSON-RPC request or batch.
type Info struct {
	// Parsed is false if the payload is not valid JSON, in which case the
	// other fields are zero.
	Parsed bool

	// IsBatch is true if the payload is a batch.
	IsBatch bool

	// BatchSize is the number of requests in a batch.
	BatchSize int

	// Version, Method and ID are taken from a single (non-batch) request. They
	// are zero if the field is absent or has an unexpected type.
	Version string
	Method  string
	ID      json.RawMessage
}

// IsNotification returns true if the payload is a single request without an
// ID.
func (i Info) IsNotification() bool {
	return i.Parsed && !i.IsBatch && i.ID == nil
}

// Describe returns information about a payload.
func Describe(p string) Info {
	v, err := jsonx.Parse([]byte(p))
	if err != nil {
		return Info{}
	}

	info := Info{Parsed: true}

	if v.Kind() == jsonx.Array {
		info.IsBatch = true
		info.BatchSize = len(v.Elements())
		return info
	}

	info.Version = stringField(v, "jsonrpc")
	info.Method = stringField(v, "method")

	if id, ok := v.Field("id"); ok {
		info.ID = id
	}

	return info
}

// stringField returns the value of a string field, or an empty string if it
// is absent or not a string.
func stringField(v jsonx.Value, name string) string {
	raw, ok := v.Field(name)
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return s
}
