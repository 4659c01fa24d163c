package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// untrackedPaths are never reported to PostHog.
var untrackedPaths = map[string]bool{
	"/health": true,
}

// PosthogMiddleware reports every successful authenticated request as an
// event named after its route, e.g. "api_v1_transfers".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() || untrackedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			return
		}
		PosthogEvent(c, posthogClient, eventName, map[string]any{
			"status_code": c.Writer.Status(),
		})
	}
}

// PosthogEvent sends a custom event on behalf of the authenticated account.
// It is a no-op for anonymous requests or when PostHog is not configured.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if !posthogClient.IsInitialized() {
		return
	}
	accountID, ok := GetAccountIDFromContext(c)
	if !ok {
		return
	}

	if properties == nil {
		properties = make(map[string]any)
	}
	properties["method"] = c.Request.Method
	properties["path"] = c.Request.URL.Path

	posthogClient.Enqueue(accountID, eventName, properties)
}
