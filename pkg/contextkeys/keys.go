// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/boxoffice/pkg/contextkeys"
//	ctx = contextkeys.WithActorID(ctx, 42)
//	actorID, ok := contextkeys.GetActorID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ActorIDKey contains the authenticated actor's user id
	// Set by: cmd/boxoffice-report, or whatever transport authenticates the caller
	// Required by: rbac.PermissionChecker.CurrentActorID
	// Type: int64
	ActorIDKey Key = "actor_id"

	// RequestIDKey contains request ID string
	// Set by: callers that correlate a report with an upstream request
	// Used by: Logger
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: cmd entrypoints
	// Used by: code that needs structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithActorID adds the authenticated actor id to the context
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, ActorIDKey, actorID)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetActorID retrieves the actor id from context
func GetActorID(ctx context.Context) (int64, bool) {
	actorID, ok := ctx.Value(ActorIDKey).(int64)
	return actorID, ok
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
