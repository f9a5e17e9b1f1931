package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// Middleware wraps a Handler with cross-cutting behavior. Middleware runs
// in FIFO order: the first one registered wraps outermost.
type Middleware func(next Handler) Handler

type toolNameKey struct{}

// WithToolName returns a context carrying the invoked tool's name.
// Invoke sets it before entering the middleware chain.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

// ToolNameFrom returns the tool name stored by WithToolName, or "".
func ToolNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(toolNameKey{}).(string)
	return name
}

// PanicRecovery converts a panicking invocation into an error so one bad
// call cannot take down the server.
func PanicRecovery() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (result entities.InvocationResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					result = entities.InvocationResult{}
					err = fmt.Errorf("tool invocation panicked: %v", r)
				}
			}()
			return next(ctx, args)
		}
	}
}

// Logging logs every invocation with its outcome and duration.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
			start := time.Now()
			result, err := next(ctx, args)
			if err != nil {
				logger.Warn("tool invocation failed",
					"tool", ToolNameFrom(ctx),
					"duration", time.Since(start),
					"error", err)
			} else {
				logger.Debug("tool invocation completed",
					"tool", ToolNameFrom(ctx),
					"duration", time.Since(start))
			}
			return result, err
		}
	}
}
