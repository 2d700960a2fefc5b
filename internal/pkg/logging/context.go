package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext attaches a logger to the context. The HTTP middleware uses this
// to carry a logger preloaded with request_id and trace fields down into the
// services.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached by WithContext. Code running
// outside a request, such as the cmd binaries or bare tests, gets the global
// logger instead, which is a nop unless main installed one.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.L()
}
