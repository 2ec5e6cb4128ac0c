package fixtures

import (
	"context"
	"net/http"

	"github.com/dogmatiq/courier"
)

// ExchangerStub is a test implementation of the courier.Exchanger interface.
type ExchangerStub struct {
	ExchangeFunc func(context.Context, string) courier.Outcome
}

// Exchange returns s.ExchangeFunc(ctx, payload) if it is non-nil, otherwise it
// returns a successful outcome with a null result.
func (s *ExchangerStub) Exchange(ctx context.Context, payload string) courier.Outcome {
	if s.ExchangeFunc != nil {
		return s.ExchangeFunc(ctx, payload)
	}

	return courier.Outcome{Result: []byte(`null`)}
}

// RoundTripperStub is a test implementation of the http.RoundTripper
// interface.
type RoundTripperStub struct {
	RoundTripFunc func(*http.Request) (*http.Response, error)
}

// RoundTrip returns s.RoundTripFunc(r) if it is non-nil, otherwise it panics.
func (s *RoundTripperStub) RoundTrip(r *http.Request) (*http.Response, error) {
	if s.RoundTripFunc != nil {
		return s.RoundTripFunc(r)
	}

	panic("unexpected HTTP round-trip")
}
