package httptransport

import (
	"github.com/dogmatiq/courier"
	"go.uber.org/zap"
)

// WithZapLogger is an Option that configures the transport to log each
// exchange using a courier.ZapExchangeLogger.
func WithZapLogger(logger *zap.Logger) Option {
	return WithExchangeLogger(
		courier.NewZapExchangeLogger(
			logger.Named("courier"),
		),
	)
}
