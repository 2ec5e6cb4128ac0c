package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/dogmatiq/courier"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// envPrefix is the prefix of environment variables that configure the CLI.
const envPrefix = "courier"

// Config is the configuration of the "send" command.
type Config struct {
	Address              string
	Timeout              time.Duration
	Mode                 courier.DeliveryMode
	LogLevel             zapcore.Level
	LogFormat            string
	CorrelateBatchErrors bool
	Trace                bool
	Metrics              bool
}

// setupFlags adds the transport flags to cmd.
func setupFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.String("address", "", "URL of the JSON-RPC endpoint")
	f.Float64("timeout", 1, "connect and exchange timeout, in seconds")
	f.String("mode", "async", "delivery mode (sync, async)")
	f.String("log-level", "warn", "minimum log level (debug, info, warn, error)")
	f.String("log-format", "json", "log format (json, console)")
	f.Bool("correlate-batch-errors", false, "collect the error of each element of a batch response")
	f.Bool("trace", false, "write OpenTelemetry spans to stderr")
	f.Bool("metrics", false, "write Prometheus metrics to stderr after sending")
}

// newViper returns a viper instance that reads configuration from the flags
// of cmd and from COURIER_* environment variables.
//
// Variables in .env and .env.local are loaded into the environment first,
// without overriding variables that are already set.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	return v, nil
}

// loadEnvFiles loads variables from each of the named files into the
// environment. Files that do not exist are skipped.
func loadEnvFiles(names ...string) error {
	for _, n := range names {
		if err := godotenv.Load(n); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to load environment file (%s): %w", n, err)
		}
	}

	return nil
}

// loadConfig reads and validates the configuration held by v.
func loadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Address:              strings.TrimSpace(v.GetString("address")),
		LogFormat:            strings.ToLower(v.GetString("log-format")),
		CorrelateBatchErrors: v.GetBool("correlate-batch-errors"),
		Trace:                v.GetBool("trace"),
		Metrics:              v.GetBool("metrics"),
	}

	if cfg.Address == "" {
		return Config{}, errors.New("an endpoint address is required, use --address or COURIER_ADDRESS")
	}

	seconds := v.GetFloat64("timeout")
	if seconds <= 0 {
		return Config{}, fmt.Errorf("invalid timeout (%v): must be positive", seconds)
	}
	cfg.Timeout = time.Duration(seconds * float64(time.Second))

	mode, err := courier.ParseDeliveryMode(v.GetString("mode"))
	if err != nil {
		return Config{}, err
	}
	cfg.Mode = mode

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return Config{}, fmt.Errorf("unknown log format (%s), expected json or console", cfg.LogFormat)
	}

	return cfg, nil
}
