package courier

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dogmatiq/courier/internal/jsonx"
)

// Outcome is the result of a single JSON-RPC exchange.
//
// For a single (non-batch) response exactly one of Err and Result is set. A
// JSON null result is represented by the literal null, never by a nil Result.
//
// For a batch response, Results contains one entry per element of the
// response array, in order. An entry is nil if the element had no result. Err
// is a BatchError if any JSON-RPC errors were collected, in which case Results
// still contains whatever results were collected.
//
// If Err is an InvalidInputError or a TransportError there is no result of any
// kind.
type Outcome struct {
	Err     error
	Result  json.RawMessage
	Results []json.RawMessage
	IsBatch bool
}

// Data returns the result data of the outcome, either the single result or
// the batch results.
func (o Outcome) Data() any {
	if o.IsBatch {
		return o.Results
	}

	if o.Result == nil {
		return nil
	}

	return o.Result
}

// UnmarshalResult unmarshals the result of a single response into v.
//
// It returns o.Err if the exchange failed.
func (o Outcome) UnmarshalResult(v any, options ...UnmarshalOption) error {
	if o.Err != nil {
		return o.Err
	}

	if o.IsBatch {
		return errors.New("unable to unmarshal result: outcome is for a batch response")
	}

	if err := jsonx.Unmarshal(o.Result, v, options...); err != nil {
		return fmt.Errorf("unable to unmarshal result: %w", err)
	}

	return nil
}

// UnmarshalResultAt unmarshals the i'th result of a batch response into v.
//
// ok is false if there is no result at that position. Unlike UnmarshalResult,
// a BatchError in o.Err does not prevent unmarshaling of the results that are
// present.
func (o Outcome) UnmarshalResultAt(i int, v any, options ...UnmarshalOption) (ok bool, _ error) {
	if !o.IsBatch {
		if o.Err != nil {
			return false, o.Err
		}

		return false, errors.New("unable to unmarshal result: outcome is not for a batch response")
	}

	if i < 0 || i >= len(o.Results) || o.Results[i] == nil {
		return false, nil
	}

	if err := jsonx.Unmarshal(o.Results[i], v, options...); err != nil {
		return false, fmt.Errorf("unable to unmarshal result at index %d: %w", i, err)
	}

	return true, nil
}
