package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// contextKey is the type of keys stored in request contexts.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerCtxKey = contextKey("logger")
	// accountIDKey holds the authenticated caller's account id.
	accountIDKey = contextKey("accountID")
	// authMethodKey records which scheme authenticated the request.
	authMethodKey = contextKey("authMethod")
)

// WithAccountID returns a copy of ctx carrying the authenticated account id.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// GetAccountIDFromContext retrieves the authenticated account ID from the Gin context.
// It returns the account ID and a boolean indicating if it was found.
func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	accountID, ok := c.Request.Context().Value(accountIDKey).(string)
	if !ok || accountID == "" {
		return "", false
	}
	return accountID, true
}
