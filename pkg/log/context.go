package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger. HTTPMiddleware uses it
// to scope a request_id onto every line logged while serving a request.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the logger stored in ctx. A nil ctx or one without a logger
// yields the global logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithClient derives a logger tagged with the relay connection id from the
// one already in ctx and stores it back.
func WithClient(ctx context.Context, clientID string) (context.Context, zerolog.Logger) {
	l := Ctx(ctx).With().Str(FieldClientID, clientID).Logger()
	return WithLogger(ctx, l), l
}
