package host

import (
	"log/slog"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// hostConfig holds configuration for the Executor.
type hostConfig struct {
	logger      *slog.Logger
	region      entities.InputRegion
	callTimeout time.Duration
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		logger:      slog.Default(),
		region:      entities.DefaultInputRegion(),
		callTimeout: 30 * time.Second,
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*hostConfig)

// WithInputRegion sets the guest-memory window call input is written
// into. Every module loaded by the executor receives the same region.
func WithInputRegion(r entities.InputRegion) Option {
	return func(c *hostConfig) {
		c.region = r
	}
}

// WithCallTimeout bounds the wall-clock duration of one guest call.
// A call past the deadline is interrupted and reported as a timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *hostConfig) {
		c.callTimeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = l
	}
}
