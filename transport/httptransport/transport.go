package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dogmatiq/courier"
)

// DefaultTimeout is the timeout used when none is specified.
const DefaultTimeout = 1 * time.Second

// Transport sends JSON-RPC payloads to a single HTTP endpoint.
//
// Its configuration is fixed at construction. It is safe for concurrent use,
// provided the HTTP client it uses is also safe for concurrent use.
type Transport struct {
	address    string
	timeout    time.Duration
	mode       courier.DeliveryMode
	client     *http.Client
	logger     courier.ExchangeLogger
	middleware []courier.Middleware
	interpret  []courier.InterpretOption
	exchanger  courier.Exchanger
}

// Option is an option that changes the behavior of a Transport.
type Option func(*Transport)

// WithTimeout is an Option that sets the maximum amount of time to wait for a
// connection to be established, and separately for the exchange as a whole.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithDeliveryMode is an Option that sets how outcomes are delivered.
//
// The default is courier.Async.
func WithDeliveryMode(m courier.DeliveryMode) Option {
	return func(t *Transport) {
		t.mode = m
	}
}

// WithHTTPClient is an Option that sets the HTTP client used to make requests.
//
// The client is used as-is. Each exchange is still bounded by the transport's
// timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.client = c
	}
}

// WithExchangeLogger is an Option that sets the logger used to log each
// exchange.
func WithExchangeLogger(l courier.ExchangeLogger) Option {
	return func(t *Transport) {
		t.logger = l
	}
}

// WithMiddleware is an Option that decorates the HTTP exchange with the given
// middleware.
//
// The first middleware is the outermost. It may be specified multiple times.
func WithMiddleware(m ...courier.Middleware) Option {
	return func(t *Transport) {
		t.middleware = append(t.middleware, m...)
	}
}

// WithCorrelatedBatchErrors is an Option that makes the transport collect the
// "error" member of each element of a batch response.
//
// See courier.CorrelateBatchErrors().
func WithCorrelatedBatchErrors() Option {
	return func(t *Transport) {
		t.interpret = append(t.interpret, courier.CorrelateBatchErrors())
	}
}

// New returns a transport that sends payloads to the endpoint at address.
func New(address string, options ...Option) (*Transport, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint address (%s): %w", address, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint address (%s): expected an absolute HTTP or HTTPS URL", address)
	}

	t := &Transport{
		address: address,
		timeout: DefaultTimeout,
	}

	for _, opt := range options {
		opt(t)
	}

	if t.timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout (%s): must be positive", t.timeout)
	}

	if t.client == nil {
		t.client = newHTTPClient(t.timeout)
	}

	var x courier.Exchanger = &exchanger{
		address:   t.address,
		timeout:   t.timeout,
		client:    t.client,
		interpret: t.interpret,
	}

	for i := len(t.middleware) - 1; i >= 0; i-- {
		x = t.middleware[i](x)
	}

	if t.logger != nil {
		x = courier.Logging(t.address, t.logger)(x)
	}

	t.exchanger = x

	return t, nil
}

// Address returns the URL of the endpoint.
func (t *Transport) Address() string {
	return t.address
}

// Timeout returns the connect and exchange timeout.
func (t *Transport) Timeout() time.Duration {
	return t.timeout
}

// DeliveryMode returns the mode used to deliver outcomes.
func (t *Transport) DeliveryMode() courier.DeliveryMode {
	return t.mode
}

// Send sends a JSON-RPC payload to the endpoint.
//
// payload must be a string containing a serialized JSON-RPC request or batch.
// Any other value produces an outcome with a courier.InvalidInputError without
// making an HTTP request.
//
// In courier.Sync mode the exchange is complete when Send returns. In
// courier.Async mode it continues on a separate goroutine.
func (t *Transport) Send(ctx context.Context, payload any) *courier.Call {
	return t.mode.Start(
		ctx,
		func(ctx context.Context) courier.Outcome {
			return t.exchange(ctx, payload)
		},
	)
}

// SendFunc sends a JSON-RPC payload to the endpoint and delivers the outcome
// according to the transport's delivery mode.
//
// In courier.Async mode fn is invoked exactly once, on a separate goroutine,
// and SendFunc returns a zero outcome. fn must not be nil.
//
// In courier.Sync mode fn is ignored and the outcome is returned.
func (t *Transport) SendFunc(ctx context.Context, payload any, fn courier.Callback) courier.Outcome {
	if t.mode == courier.Sync {
		return t.exchange(ctx, payload)
	}

	if fn == nil {
		panic("unable to send JSON-RPC payload: a callback is required in async delivery mode")
	}

	go func() {
		fn(t.exchange(ctx, payload))
	}()

	return courier.Outcome{}
}

// exchange performs a single exchange.
func (t *Transport) exchange(ctx context.Context, payload any) courier.Outcome {
	p, ok := payload.(string)
	if !ok {
		out := courier.Outcome{
			Err: courier.InvalidInputError{
				Message: fmt.Sprintf("payload must be a string, got %T", payload),
			},
		}

		if t.logger != nil {
			t.logger.LogExchange(ctx, t.address, "", out, 0)
		}

		return out
	}

	return t.exchanger.Exchange(ctx, p)
}
