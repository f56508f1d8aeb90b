// Package ctxutil provides helpers for storing and retrieving values in context.
package ctxutil

import "context"

// key is an unexported type to avoid collisions.
type key int

const (
	requestIDKey key = iota
	clientIDKey
	viewerKeyKey
)

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context, if set.
func RequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithClientID returns a new context with the given client ID.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID extracts the client ID from the context, if set.
func ClientID(ctx context.Context) string {
	if s, ok := ctx.Value(clientIDKey).(string); ok {
		return s
	}
	return ""
}

// WithViewerKey returns a new context carrying the viewer identity used for
// hit deduplication.
func WithViewerKey(ctx context.Context, viewer string) context.Context {
	return context.WithValue(ctx, viewerKeyKey, viewer)
}

// ViewerKey extracts the viewer identity from the context, if set.
func ViewerKey(ctx context.Context) string {
	if s, ok := ctx.Value(viewerKeyKey).(string); ok {
		return s
	}
	return ""
}
