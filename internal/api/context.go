package api

import "context"

type contextKey string

const clientIDContextKey contextKey = "client_id"

// ClientIDFromContext returns the browser client id, or "" when unset
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDContextKey).(string)
	return id
}

// ContextWithClientID adds the browser client id to context
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}
