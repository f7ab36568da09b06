package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	RequestIDKey   ContextKey = "request_id"
	VisitorIDKey   ContextKey = "visitor_id"
	UserIDKey      ContextKey = "user_id"
	AccountKindKey ContextKey = "account_kind"
	OperationKey   ContextKey = "operation"
)

// contextKeys lists the keys copied into log records, in output order.
var contextKeys = []ContextKey{RequestIDKey, VisitorIDKey, UserIDKey, AccountKindKey, OperationKey}

// ContextAttrs returns the request-scoped values found in ctx.
func ContextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, VisitorIDKey, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func WithAccountKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, AccountKindKey, kind)
}

func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}
