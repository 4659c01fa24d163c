package handlers

import (
	"fmt"
	"net/http"

	"github.com/SscSPs/balance_service/cmd/docs"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/SscSPs/balance_service/internal/platform/config"
	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// loginRate bounds credential guessing per client IP.
const loginRate = "10-M"

// HealthCheck reports whether the process can reach its store.
type HealthCheck func(c *gin.Context) error

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthog *utils.PosthogClientWrapper,
	health HealthCheck,
) error {
	if err := RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	loginLimiter, err := middleware.NewLimiter(loginRate)
	if err != nil {
		return fmt.Errorf("invalid login rate: %w", err)
	}
	registerAuthRoutes(r, services, loginLimiter)

	if err := setupAPIV1Routes(r, cfg, services, posthog); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the authenticated /api/v1 group
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthog *utils.PosthogClientWrapper,
) error {
	apiLimiter, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}

	v1 := r.Group("/api/v1",
		middleware.AuthMiddleware(cfg.JWTSecret, services.Auth),
		middleware.RateLimit(apiLimiter),
		middleware.PosthogMiddleware(posthog),
	)

	registerUserRoutes(v1, services.Account)
	registerBalanceRoutes(v1, services.Ledger, posthog)
	registerTransferRoutes(v1, services.Ledger, posthog)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
