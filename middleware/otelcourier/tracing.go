// Package otelcourier provides OpenTelemetry tracing for JSON-RPC exchanges.
package otelcourier

import (
	"context"
	"errors"
	"sync"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/internal/payload"
	"github.com/dogmatiq/courier/internal/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing is an implementation of courier.Exchanger that records an
// OpenTelemetry span for each exchange.
//
// It adheres to the OpenTelemetry RPC semantic conventions as specified in
// https://github.com/open-telemetry/opentelemetry-specification/blob/main/specification/trace/semantic_conventions/rpc.md.
type Tracing struct {
	// Next is the next exchanger in the middleware stack.
	Next courier.Exchanger

	// TracerProvider is the OpenTelemetry TracerProvider to use for creating
	// spans.
	TracerProvider trace.TracerProvider

	// ServiceName is an application specific service name to use in the span
	// name and attributes.
	//
	// It may be empty, in which case it is omitted from the span.
	ServiceName string

	// Endpoint is the URL of the JSON-RPC endpoint. It may be empty.
	Endpoint string

	once           sync.Once
	tracer         trace.Tracer
	spanNamePrefix string
	attributes     []attribute.KeyValue
}

var _ courier.Exchanger = (*Tracing)(nil)

// Middleware returns a courier.Middleware that traces exchanges using tp.
func Middleware(tp trace.TracerProvider, serviceName, endpoint string) courier.Middleware {
	return func(next courier.Exchanger) courier.Exchanger {
		return &Tracing{
			Next:           next,
			TracerProvider: tp,
			ServiceName:    serviceName,
			Endpoint:       endpoint,
		}
	}
}

// Exchange performs the exchange within a new client span.
func (t *Tracing) Exchange(ctx context.Context, p string) courier.Outcome {
	t.init()

	info := payload.Describe(p)

	ctx, span := t.tracer.Start(
		ctx,
		t.spanNamePrefix+spanName(info),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(t.attributes...)
	span.SetAttributes(requestAttributes(info)...)

	out := t.Next.Exchange(ctx, p)

	var (
		batchErr courier.BatchError
		rpcErr   *courier.Error
	)

	switch {
	case out.Err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.As(out.Err, &batchErr):
		span.SetAttributes(batchErrorCountKey.Int(len(batchErr)))
		span.SetStatus(codes.Error, batchErr.Error())
	case errors.As(out.Err, &rpcErr):
		span.SetAttributes(errorAttributes(rpcErr)...)
		span.SetStatus(codes.Error, rpcErr.Message())
	default:
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	}

	return out
}

// init initializes the tracer if it has not already been initialized.
func (t *Tracing) init() {
	t.once.Do(func() {
		t.tracer = t.TracerProvider.Tracer(
			"github.com/dogmatiq/courier/middleware/otelcourier",
			trace.WithInstrumentationVersion(version.Version),
		)

		t.attributes = commonAttributes(t.ServiceName, t.Endpoint)

		if t.ServiceName != "" {
			t.spanNamePrefix = t.ServiceName + "/"
		}
	})
}

// spanName returns the name of the span for a payload, excluding the service
// name prefix.
func spanName(info payload.Info) string {
	switch {
	case info.IsBatch:
		return "batch"
	case info.Method != "":
		return sanitizeMethodName(info.Method)
	default:
		return "exchange"
	}
}
