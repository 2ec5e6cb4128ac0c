package otelcourier

import (
	"strings"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/internal/payload"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// batchSizeKey is the attribute key for the number of requests in a batch.
const batchSizeKey = attribute.Key("rpc.jsonrpc.batch_size")

// batchErrorCountKey is the attribute key for the number of errors in a batch
// response.
const batchErrorCountKey = attribute.Key("rpc.jsonrpc.batch_error_count")

// commonAttributes returns the attributes that are recorded on every span.
func commonAttributes(serviceName, endpoint string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.RPCSystemKey.String("jsonrpc"),
	}

	if serviceName != "" {
		attrs = append(attrs, semconv.RPCServiceKey.String(serviceName))
	}

	if endpoint != "" {
		attrs = append(attrs, semconv.HTTPURLKey.String(endpoint))
	}

	return attrs
}

// requestAttributes returns the attributes that describe the request.
func requestAttributes(info payload.Info) []attribute.KeyValue {
	if info.IsBatch {
		return []attribute.KeyValue{
			batchSizeKey.Int(info.BatchSize),
		}
	}

	var attrs []attribute.KeyValue

	if info.Method != "" {
		attrs = append(attrs, semconv.RPCMethodKey.String(info.Method))
	}

	if info.Version != "" {
		attrs = append(attrs, semconv.RPCJsonrpcVersionKey.String(info.Version))
	}

	if info.ID != nil {
		attrs = append(attrs, semconv.RPCJsonrpcRequestIDKey.String(sanitizeRequestID(info)))
	}

	return attrs
}

// errorAttributes returns the attributes that describe a JSON-RPC error.
func errorAttributes(err *courier.Error) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.RPCJsonrpcErrorCodeKey.Int(int(err.Code())),
		semconv.RPCJsonrpcErrorMessageKey.String(err.Message()),
	}
}

// sanitizeRequestID returns a request ID suitable for use as a span attribute.
//
// As per semconv.RPCJsonrpcRequestIDKey it returns an empty string if the
// request ID is null.
func sanitizeRequestID(info payload.Info) string {
	id := string(info.ID)

	if strings.EqualFold(id, "null") {
		return ""
	}

	return strings.Trim(id, `"`)
}

// sanitizeMethodName returns an RPC method name suitable for use in part of
// a span name.
func sanitizeMethodName(n string) string {
	return strings.ReplaceAll(n, "/", "-")
}
