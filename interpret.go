package courier

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"github.com/dogmatiq/courier/internal/jsonx"
)

// errMalformedUTF8 is the cause of the error produced when a response body is
// not valid UTF-8.
var errMalformedUTF8 = errors.New("malformed UTF-8 characters")

// InterpretOption is an option that changes how a response is interpreted.
type InterpretOption func(*interpretOptions)

type interpretOptions struct {
	correlateBatchErrors bool
}

// CorrelateBatchErrors is an InterpretOption that makes the interpreter look
// for an "error" member on each element of a batch response.
//
// By default the "error" member is looked up on the batch response itself.
// As a batch response is a JSON array, which has no members, no errors are
// ever collected from a batch and every element without a result yields a nil
// entry in Outcome.Results.
func CorrelateBatchErrors() InterpretOption {
	return func(opts *interpretOptions) {
		opts.correlateBatchErrors = true
	}
}

// InterpretResponse interprets the body of a successful HTTP response to a
// JSON-RPC request or batch.
func InterpretResponse(body []byte, options ...InterpretOption) Outcome {
	var opts interpretOptions
	for _, opt := range options {
		opt(&opts)
	}

	if !utf8.Valid(body) {
		return Outcome{
			Err: InvalidInputError{
				Message: "json_decode error: " + errMalformedUTF8.Error(),
				Cause:   errMalformedUTF8,
			},
		}
	}

	v, err := jsonx.Parse(body)
	if err != nil {
		return Outcome{
			Err: InvalidInputError{
				Message: "json_decode error: " + err.Error(),
				Cause:   err,
			},
		}
	}

	if v.Kind() == jsonx.Array {
		return interpretBatch(v, opts)
	}

	if result, ok := v.Field("result"); ok {
		return Outcome{Result: result}
	}

	if e, ok, err := errorMember(v); err != nil {
		return Outcome{Err: err}
	} else if ok {
		return Outcome{Err: e}
	}

	return Outcome{
		Err: NewError(UnspecifiedErrorCode, GenericErrorMessage),
	}
}

// interpretBatch interprets a batch response.
func interpretBatch(batch jsonx.Value, opts interpretOptions) Outcome {
	elements := batch.Elements()

	out := Outcome{
		IsBatch: true,
		Results: make([]json.RawMessage, 0, len(elements)),
	}

	var errs BatchError

	for i := range elements {
		res, err := batch.Element(i)
		if err != nil {
			return Outcome{
				Err: InvalidInputError{
					Message: "json_decode error: " + err.Error(),
					Cause:   err,
				},
			}
		}

		if result, ok := res.Field("result"); ok {
			out.Results = append(out.Results, result)
			continue
		}

		source := batch
		if opts.correlateBatchErrors {
			source = res
		}

		e, ok, err := errorMember(source)
		if err != nil {
			return Outcome{Err: err}
		}

		if ok {
			errs = append(errs, e)
		}

		out.Results = append(out.Results, nil)
	}

	if len(errs) > 0 {
		out.Err = errs
	}

	return out
}

// errorMember returns the error described by the "error" member of v.
//
// ok is false if v has no "error" member or its value is null. err is
// non-nil if the member is present but malformed.
func errorMember(v jsonx.Value) (_ *Error, ok bool, err error) {
	raw, ok := v.Field("error")
	if !ok || isNull(raw) {
		return nil, false, nil
	}

	ev, err := jsonx.Parse(raw)
	if err != nil || ev.Kind() != jsonx.Object {
		return nil, false, InvalidInputError{
			Message: "malformed error in JSON-RPC response: expected an object",
			Cause:   err,
		}
	}

	// Members are matched by exact name, unlike struct unmarshaling.
	var info ErrorInfo

	if err := unmarshalMember(ev, "code", &info.Code); err != nil {
		return nil, false, err
	}

	if err := unmarshalMember(ev, "message", &info.Message); err != nil {
		return nil, false, err
	}

	if data, ok := ev.Field("data"); ok && !isNull(data) {
		info.Data = data
	}

	return newRemoteError(info), true, nil
}

// unmarshalMember unmarshals the named member of an error object into v. It
// leaves v unchanged if the member is absent or null.
func unmarshalMember(ev jsonx.Value, name string, v any) error {
	raw, ok := ev.Field(name)
	if !ok || isNull(raw) {
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return InvalidInputError{
			Message: "malformed error in JSON-RPC response: " + err.Error(),
			Cause:   err,
		}
	}

	return nil
}

// isNull returns true if raw is the JSON null literal.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
