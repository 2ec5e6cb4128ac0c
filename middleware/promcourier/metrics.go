// Package promcourier provides Prometheus metrics for JSON-RPC exchanges.
package promcourier

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/internal/payload"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultNamespace is the metric namespace used when none is specified.
const defaultNamespace = "courier"

// Values of the "outcome" label.
const (
	outcomeSuccess    = "success"
	outcomeRPCError   = "rpc_error"
	outcomeBatchError = "batch_error"
	outcomeInvalid    = "invalid_input"
	outcomeTransport  = "transport_error"
)

// Values of the "method" label for payloads that are not a single request.
const (
	methodBatch   = "(batch)"
	methodUnknown = "(unknown)"
)

// Metrics is an implementation of courier.Exchanger that records Prometheus
// metrics for each exchange.
type Metrics struct {
	// Next is the next exchanger in the middleware stack.
	Next courier.Exchanger

	// Registerer is the registry with which the collectors are registered. If
	// it is nil, prometheus.DefaultRegisterer is used.
	Registerer prometheus.Registerer

	// Namespace is the metric namespace. If it is empty, "courier" is used.
	Namespace string

	once      sync.Once
	exchanges *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ courier.Exchanger = (*Metrics)(nil)

// Middleware returns a courier.Middleware that records metrics in r.
func Middleware(r prometheus.Registerer) courier.Middleware {
	return func(next courier.Exchanger) courier.Exchanger {
		return &Metrics{
			Next:       next,
			Registerer: r,
		}
	}
}

// Exchange performs the exchange and records its outcome.
func (m *Metrics) Exchange(ctx context.Context, p string) courier.Outcome {
	m.init()

	method := methodLabel(payload.Describe(p))

	start := time.Now()
	out := m.Next.Exchange(ctx, p)
	elapsed := time.Since(start)

	kind := outcomeLabel(out.Err)

	m.exchanges.WithLabelValues(method, kind).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())

	var (
		batchErr courier.BatchError
		rpcErr   *courier.Error
	)

	// A BatchError unwraps to its elements, so it must be checked first.
	if errors.As(out.Err, &batchErr) {
		for _, e := range batchErr {
			m.errors.WithLabelValues(method, strconv.Itoa(int(e.Code()))).Inc()
		}
	} else if errors.As(out.Err, &rpcErr) {
		m.errors.WithLabelValues(method, strconv.Itoa(int(rpcErr.Code()))).Inc()
	}

	return out
}

// init creates and registers the collectors if it has not already been done.
func (m *Metrics) init() {
	m.once.Do(func() {
		ns := m.Namespace
		if ns == "" {
			ns = defaultNamespace
		}

		r := m.Registerer
		if r == nil {
			r = prometheus.DefaultRegisterer
		}

		m.exchanges = register(r, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "exchanges_total",
				Help:      "The number of JSON-RPC exchanges, by method and outcome.",
			},
			[]string{"method", "outcome"},
		))

		m.errors = register(r, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "rpc_errors_total",
				Help:      "The number of JSON-RPC errors reported by the endpoint, by method and error code.",
			},
			[]string{"method", "code"},
		))

		m.duration = register(r, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "exchange_duration_seconds",
				Help:      "The amount of time taken by JSON-RPC exchanges.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method"},
		))
	})
}

// register registers c with r. If an identical collector is already
// registered, the existing one is returned instead.
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}

		panic(err)
	}

	return c
}

// methodLabel returns the "method" label value for a payload.
func methodLabel(info payload.Info) string {
	switch {
	case info.IsBatch:
		return methodBatch
	case info.Method != "":
		return info.Method
	default:
		return methodUnknown
	}
}

// outcomeLabel returns the "outcome" label value for an exchange error.
func outcomeLabel(err error) string {
	var (
		rpcErr       *courier.Error
		batchErr     courier.BatchError
		invalidErr   courier.InvalidInputError
		transportErr *courier.TransportError
	)

	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &batchErr):
		return outcomeBatchError
	case errors.As(err, &rpcErr):
		return outcomeRPCError
	case errors.As(err, &invalidErr):
		return outcomeInvalid
	case errors.As(err, &transportErr):
		return outcomeTransport
	default:
		return outcomeInvalid
	}
}
