package jsonx

import (
	"bytes"
	"encoding/json"
)

// Kind is the kind of a parsed JSON value.
type Kind int

const (
	// Scalar is any JSON value that is neither an object nor an array,
	// including null.
	Scalar Kind = iota

	// Object is a JSON object.
	Object

	// Array is a JSON array.
	Array
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "scalar"
	}
}

// Value is a parsed JSON value.
//
// Only the top level of the value is parsed. Object fields and array elements
// are retained in their raw form.
type Value struct {
	kind     Kind
	fields   map[string]json.RawMessage
	elements []json.RawMessage
}

// Parse parses data as a single JSON value.
//
// It returns an error if data is not valid JSON, including when there is
// trailing content after the value.
func Parse(data []byte) (Value, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, err
	}

	return parseRaw(raw)
}

// parseRaw parses a raw JSON value that is already known to be valid.
func parseRaw(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)

	switch {
	case len(raw) == 0:
		return Value{kind: Scalar}, nil

	case raw[0] == '{':
		v := Value{kind: Object}
		if err := json.Unmarshal(raw, &v.fields); err != nil {
			return Value{}, err
		}
		return v, nil

	case raw[0] == '[':
		v := Value{kind: Array}
		if err := json.Unmarshal(raw, &v.elements); err != nil {
			return Value{}, err
		}
		return v, nil
	}

	return Value{kind: Scalar}, nil
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Field returns the raw value of the field with the given name.
//
// ok is false if v is not an object or has no such field. A field that is
// present with a null value is returned as the literal null.
func (v Value) Field(name string) (_ json.RawMessage, ok bool) {
	f, ok := v.fields[name]
	return f, ok
}

// Elements returns the raw elements of an array value, or nil if v is not an
// array.
func (v Value) Elements() []json.RawMessage {
	return v.elements
}

// Element parses the i'th element of an array value.
func (v Value) Element(i int) (Value, error) {
	return parseRaw(v.elements[i])
}
