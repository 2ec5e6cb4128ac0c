package courier

import "context"

// Exchanger is an interface for performing a single JSON-RPC exchange.
//
// The payload is an already-serialized JSON-RPC request or batch. Exchange
// must always return an outcome, failures included.
type Exchanger interface {
	Exchange(ctx context.Context, payload string) Outcome
}

// ExchangerFunc is an adaptor to allow the use of an ordinary function as an
// Exchanger.
type ExchangerFunc func(ctx context.Context, payload string) Outcome

// Exchange returns fn(ctx, payload).
func (fn ExchangerFunc) Exchange(ctx context.Context, payload string) Outcome {
	return fn(ctx, payload)
}

// Middleware is a function that decorates an Exchanger.
type Middleware func(next Exchanger) Exchanger
