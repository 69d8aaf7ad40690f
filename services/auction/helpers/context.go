package helpers

// Gin context keys set by the auth middleware and read by handlers.
const (
	ContextUsername = "auth_username"
	ContextToken    = "auth_token"
)
