package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/dogmatiq/courier"
)

// outcomeRecord is the JSON representation of an outcome written to stdout.
type outcomeRecord struct {
	Source string       `json:"source"`
	Error  *errorRecord `json:"error"`
	Data   any          `json:"data"`
}

// errorRecord is the JSON representation of an exchange error.
type errorRecord struct {
	Kind       string          `json:"kind"`
	Message    string          `json:"message"`
	Code       *int            `json:"code,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Errors     []*errorRecord  `json:"errors,omitempty"`
}

// writeOutcome writes the outcome of the exchange of the payload from src to
// w as a single line of JSON.
func writeOutcome(w io.Writer, src string, out courier.Outcome) error {
	rec := outcomeRecord{
		Source: src,
		Error:  newErrorRecord(out.Err),
		Data:   out.Data(),
	}

	return json.NewEncoder(w).Encode(rec)
}

// newErrorRecord returns the JSON representation of err.
func newErrorRecord(err error) *errorRecord {
	if err == nil {
		return nil
	}

	var (
		batchErr     courier.BatchError
		rpcErr       *courier.Error
		invalidErr   courier.InvalidInputError
		transportErr *courier.TransportError
	)

	switch {
	case errors.As(err, &batchErr):
		rec := &errorRecord{
			Kind:    "batch",
			Message: batchErr.Error(),
		}
		for _, e := range batchErr {
			rec.Errors = append(rec.Errors, newErrorRecord(e))
		}
		return rec
	case errors.As(err, &rpcErr):
		code := int(rpcErr.Code())
		return &errorRecord{
			Kind:    "rpc",
			Message: rpcErr.Message(),
			Code:    &code,
			Data:    rpcErr.Data(),
		}
	case errors.As(err, &invalidErr):
		return &errorRecord{
			Kind:    "invalid_input",
			Message: invalidErr.Message,
		}
	case errors.As(err, &transportErr):
		return &errorRecord{
			Kind:       "transport",
			Message:    transportErr.Error(),
			StatusCode: transportErr.StatusCode,
		}
	default:
		return &errorRecord{
			Kind:    "unknown",
			Message: err.Error(),
		}
	}
}
