package types

// ContextKey is the type for request-scoped context values.
type ContextKey string

// Context keys set by the server middleware and consumed by telemetry.
const (
	ContextKeyUserID        ContextKey = "user_id"
	ContextKeySessionID     ContextKey = "session_id"
	ContextKeyRequestSource ContextKey = "request_source"
)
