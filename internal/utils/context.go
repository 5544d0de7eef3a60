package utils

import (
	"context"
)

type contextKey string

const (
	ContextTokenKey     contextKey = "bearerToken"
	ContextRequestIDKey contextKey = "requestID"
)

// WithToken stores the caller's bearer token. The token is opaque to the back office.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextTokenKey, token)
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ContextTokenKey).(string)
	return token, ok && token != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, id)
}

func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextRequestIDKey).(string)
	return id, ok && id != ""
}
