package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/middleware/otelcourier"
	"github.com/dogmatiq/courier/middleware/promcourier"
	"github.com/dogmatiq/courier/transport/httptransport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// stdinSource is the name used for a payload read from stdin.
const stdinSource = "-"

// newSendCommand returns the "send" command.
func newSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [file...]",
		Short: "Send JSON-RPC payloads to an endpoint",
		Long: `Send one or more serialized JSON-RPC requests (or batches) to an HTTP
endpoint and print the outcome of each exchange as a line of JSON.

Each file is sent in its own exchange, concurrently. If no files are given,
or a file is named "-", the payload is read from stdin.`,
		RunE: runSend,
	}

	setupFlags(cmd)

	return cmd
}

// runSend is the implementation of the "send" command.
func runSend(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{stdinSource}
	}

	payloads, err := readPayloads(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	defer logger.Sync() // nolint:errcheck

	options := []httptransport.Option{
		httptransport.WithTimeout(cfg.Timeout),
		httptransport.WithDeliveryMode(cfg.Mode),
		httptransport.WithZapLogger(logger),
	}

	if cfg.CorrelateBatchErrors {
		options = append(options, httptransport.WithCorrelatedBatchErrors())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Trace {
		tp, err := newTracerProvider(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer tp.Shutdown(context.Background()) // nolint:errcheck

		options = append(
			options,
			httptransport.WithMiddleware(
				otelcourier.Middleware(tp, "", cfg.Address),
			),
		)
	}

	var registry *prometheus.Registry
	if cfg.Metrics {
		registry = prometheus.NewRegistry()
		options = append(
			options,
			httptransport.WithMiddleware(
				promcourier.Middleware(registry),
			),
		)
	}

	t, err := httptransport.New(cfg.Address, options...)
	if err != nil {
		return err
	}

	outcomes, err := sendAll(ctx, t, payloads)
	if err != nil {
		return err
	}

	if registry != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), registry); err != nil {
			return err
		}
	}

	failed := 0
	for i, out := range outcomes {
		if out.Err != nil {
			failed++
		}

		if err := writeOutcome(cmd.OutOrStdout(), args[i], out); err != nil {
			return err
		}
	}

	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d exchange(s) failed", failed, len(outcomes))
	}

	return nil
}

// sendAll sends each payload in its own exchange and returns the outcomes in
// the same order.
func sendAll(ctx context.Context, t *httptransport.Transport, payloads []string) ([]courier.Outcome, error) {
	outcomes := make([]courier.Outcome, len(payloads))

	var g errgroup.Group

	for i, p := range payloads {
		i, p := i, p

		g.Go(func() error {
			out, err := t.Send(ctx, p).Wait(ctx)
			outcomes[i] = out
			return err
		})
	}

	return outcomes, g.Wait()
}

// readPayloads reads the payload named by each source.
func readPayloads(stdin io.Reader, sources []string) ([]string, error) {
	payloads := make([]string, len(sources))
	var fromStdin []byte

	for i, src := range sources {
		if src == stdinSource {
			if fromStdin == nil {
				data, err := io.ReadAll(stdin)
				if err != nil {
					return nil, fmt.Errorf("unable to read payload from stdin: %w", err)
				}
				fromStdin = data
			}

			payloads[i] = string(fromStdin)
			continue
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("unable to read payload: %w", err)
		}

		payloads[i] = string(data)
	}

	return payloads, nil
}

// newLogger returns a zap logger that writes to w.
func newLogger(w io.Writer, cfg Config) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.LogFormat == "console" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	return zap.New(
		zapcore.NewCore(
			enc,
			zapcore.AddSync(w),
			zap.NewAtomicLevelAt(cfg.LogLevel),
		),
	)
}

// newTracerProvider returns a tracer provider that writes spans to w.
func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
	), nil
}

// writeMetrics writes the metrics gathered by g to w in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("unable to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("unable to write metrics: %w", err)
		}
	}

	return nil
}
