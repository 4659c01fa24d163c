package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authMethodJWT   = "jwt"
	authMethodBasic = "basic"
)

// AuthMiddleware creates a Gin middleware handler that authenticates the caller
// with either a Bearer JWT or HTTP Basic credentials. Basic credentials are
// only accepted when authSvc is non-nil.
func AuthMiddleware(jwtSecret string, authSvc portssvc.AuthSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.Header("WWW-Authenticate", `Basic realm="balance"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, credentials, found := strings.Cut(authHeader, " ")
		if !found {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token} or Basic {credentials}"})
			return
		}

		var accountID, method string
		switch strings.ToLower(scheme) {
		case "bearer":
			claims, err := utils.ParseAndValidateJWT(credentials, jwtSecret)
			if err != nil {
				logger.Warn("Invalid token", slog.String("error", err.Error()))
				msg := "Invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Token has expired"
				} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
					msg = "Token not valid yet"
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
				return
			}
			if claims.Subject == "" {
				logger.Error("Account ID (subject) missing from valid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
				return
			}
			accountID, method = claims.Subject, authMethodJWT
		case "basic":
			username, password, ok := c.Request.BasicAuth()
			if !ok || authSvc == nil {
				logger.Warn("Basic credentials rejected")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			account, err := authSvc.Authenticate(c.Request.Context(), username, password)
			if err != nil {
				logger.Warn("Basic authentication failed", slog.String("username", username))
				c.Header("WWW-Authenticate", `Basic realm="balance"`)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
				return
			}
			accountID, method = account.AccountID, authMethodBasic
		default:
			logger.Warn("Unsupported authorization scheme", slog.String("scheme", scheme))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token} or Basic {credentials}"})
			return
		}

		enrichedLogger := logger.With(slog.String("account_id", accountID), slog.String("auth_method", method))
		ctx := WithAccountID(c.Request.Context(), accountID)
		ctx = context.WithValue(ctx, authMethodKey, method)
		c.Request = c.Request.WithContext(WithLogger(ctx, enrichedLogger))

		c.Next()
	}
}
