package logging

import (
	"context"

	"github.com/google/uuid"
)

// ConnectionIDKey is the field name used for connection identifiers.
const ConnectionIDKey = "connection_id"

type contextKey string

const connectionIDKey contextKey = "connection_id"

// NewConnectionID returns a fresh identifier for one socket.
func NewConnectionID() string {
	return uuid.New().String()
}

// ContextWithConnectionID returns a context carrying a connection ID
func ContextWithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connectionIDKey, id)
}

// ConnectionIDFromContext extracts the connection ID from a context
func ConnectionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(connectionIDKey).(string); ok {
		return id
	}
	return ""
}
