package log

import (
	"context"

	"go.uber.org/zap"
)

type logCtxKey int

// New builds the process logger. Development mode logs human readable output at debug level.
func New(development bool, app string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("app", app)), nil
}

func IntoContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey(0), logger)
}

func FromContext(ctx context.Context) *zap.Logger {
	val := ctx.Value(logCtxKey(0))
	if val != nil {
		return val.(*zap.Logger)
	}
	zap.L().Warn("No logger in context, passing default")
	return zap.L()
}

// Named returns a context whose logger is scoped to the given component.
func Named(ctx context.Context, name string) context.Context {
	return IntoContext(ctx, FromContext(ctx).Named(name))
}
