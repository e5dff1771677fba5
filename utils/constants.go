package utils

import "time"

// ContextKey is the type for request-scoped context values.
type ContextKey string

// Request context keys populated by handlers for audit logging.
const (
	RequestIDKey  ContextKey = "request_id"
	IPAddressKey  ContextKey = "ip_address"
	UserAgentKey  ContextKey = "user_agent"
	EndpointKey   ContextKey = "endpoint"
	ActorIDKey    ContextKey = "actor_id"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Token time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Pagination constants
const (
	DefaultPageSize = 70
	MaxPageSize     = 500
)

// CORSMaxAge is how long browsers may cache preflight responses, in seconds
const CORSMaxAge = 3600
