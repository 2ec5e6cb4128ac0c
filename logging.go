package courier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dogmatiq/courier/internal/payload"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ExchangeLogger is an interface for logging JSON-RPC exchanges.
type ExchangeLogger interface {
	// LogExchange logs about a completed exchange.
	LogExchange(
		ctx context.Context,
		endpoint string,
		payload string,
		out Outcome,
		elapsed time.Duration,
	)
}

// Logging returns a Middleware that logs each exchange to l.
func Logging(endpoint string, l ExchangeLogger) Middleware {
	return func(next Exchanger) Exchanger {
		return ExchangerFunc(func(ctx context.Context, p string) Outcome {
			start := time.Now()
			out := next.Exchange(ctx, p)
			l.LogExchange(ctx, endpoint, p, out, time.Since(start))
			return out
		})
	}
}

// ZapExchangeLogger is an implementation of ExchangeLogger using zap.Logger.
type ZapExchangeLogger struct {
	// Target is the destination for log messages.
	Target *zap.Logger
}

var _ ExchangeLogger = ZapExchangeLogger{}

// NewZapExchangeLogger returns a new ZapExchangeLogger that writes to l.
func NewZapExchangeLogger(l *zap.Logger) ZapExchangeLogger {
	return ZapExchangeLogger{Target: l}
}

// LogExchange logs information about a completed exchange.
//
// Successful exchanges are logged at the info level, everything else at the
// error level.
func (l ZapExchangeLogger) LogExchange(
	ctx context.Context,
	endpoint string,
	p string,
	out Outcome,
	elapsed time.Duration,
) {
	msg := describePayload(p)

	fields := []zap.Field{
		zap.String("endpoint", endpoint),
		zap.Int("payload_size", len(p)),
		zap.Duration("elapsed", elapsed),
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		fields = append(fields, zap.String("trace_id", span.SpanContext().TraceID().String()))
	}

	if out.IsBatch {
		fields = append(fields, zap.Int("result_count", countResults(out)))
	} else if out.Result != nil {
		fields = append(fields, zap.Int("result_size", len(out.Result)))
	}

	if out.Err == nil {
		l.Target.Info(msg, fields...)
		return
	}

	var (
		batchErr     BatchError
		rpcErr       *Error
		transportErr *TransportError
	)

	// A BatchError unwraps to its elements, so it must be checked first.
	switch {
	case errors.As(out.Err, &batchErr):
		fields = append(
			fields,
			zap.Int("error_count", len(batchErr)),
			zap.String("error", batchErr.Error()),
		)
	case errors.As(out.Err, &rpcErr):
		fields = append(
			fields,
			zap.Int("error_code", int(rpcErr.Code())),
			zap.String("error", rpcErr.Code().String()),
		)

		if m := rpcErr.Message(); m != "" && m != rpcErr.Code().String() {
			fields = append(fields, zap.String("responded_with", m))
		}
	case errors.As(out.Err, &transportErr):
		if transportErr.StatusCode != 0 {
			fields = append(fields, zap.Int("status_code", transportErr.StatusCode))
		}
		fields = append(fields, zap.String("error", transportErr.Error()))
	default:
		fields = append(fields, zap.String("error", out.Err.Error()))
	}

	l.Target.Error(msg, fields...)
}

// countResults returns the number of non-nil results in a batch outcome.
func countResults(out Outcome) int {
	n := 0
	for _, r := range out.Results {
		if r != nil {
			n++
		}
	}
	return n
}

// describePayload returns a short description of a JSON-RPC payload for use
// as a log message.
func describePayload(p string) string {
	info := payload.Describe(p)

	switch {
	case !info.Parsed:
		return "exchange"
	case info.IsBatch:
		return fmt.Sprintf("batch of %d", info.BatchSize)
	}

	var w strings.Builder

	if info.IsNotification() {
		w.WriteString("notify ")
	} else {
		w.WriteString("call ")
	}

	writeMethod(&w, info.Method)

	return w.String()
}

// writeMethod formats a JSON-RPC method name for display and writes it to w.
func writeMethod(w *strings.Builder, m string) {
	if m == "" || !isPrintableName(m) {
		fmt.Fprintf(w, "%#v", m)
	} else {
		w.WriteString(m)
	}
}

// isPrintableName returns true if s consists of only letters, digits and the
// separators commonly used in method names.
func isPrintableName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' && r != '.' {
			return false
		}
	}

	return true
}
