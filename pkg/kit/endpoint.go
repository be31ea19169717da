package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is a transport-agnostic action function.
// Each action (abbreviate a title, a company name, a batch) is an Endpoint.
// HTTP handlers and MCP tools both dispatch to the same Endpoints.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware wraps an Endpoint with cross-cutting concerns (logging, tracing).
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first is outermost.
// Chain(a, b, c)(endpoint) == a(b(c(endpoint)))
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}

// Logging logs every call of the endpoint at debug level, and failures at warn.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			attrs := []slog.Attr{
				slog.String("endpoint", name),
				slog.String("transport", GetTransport(ctx)),
				slog.String("request_id", GetRequestID(ctx)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelWarn, "endpoint failed", attrs...)
				return resp, err
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "endpoint", attrs...)
			return resp, nil
		}
	}
}
