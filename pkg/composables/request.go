package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mes/pkg/constants"
)

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func UseLogger(ctx context.Context) *logrus.Entry {
	if l, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return l
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, id)
}

func UseRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithActor records who is performing mutations; audit records pick it up.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

func UseActor(ctx context.Context) string {
	if a, ok := ctx.Value(constants.ActorKey).(string); ok && a != "" {
		return a
	}
	return "system"
}
