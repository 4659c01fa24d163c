package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/dto"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

// authHandler handles registration and login.
type authHandler struct {
	authService    portssvc.AuthSvcFacade
	accountService portssvc.AccountSvcFacade
}

func newAuthHandler(authSvc portssvc.AuthSvcFacade, accountSvc portssvc.AccountSvcFacade) *authHandler {
	return &authHandler{
		authService:    authSvc,
		accountService: accountSvc,
	}
}

// registerAuthRoutes sets up the public routes. Both are limited per client
// IP by loginLimiter.
func registerAuthRoutes(r *gin.Engine, services *portssvc.ServiceContainer, loginLimiter *limiter.Limiter) {
	h := newAuthHandler(services.Auth, services.Account)
	limitMiddleware := limitergin.NewMiddleware(loginLimiter)

	r.POST("/api/v1/auth/login", limitMiddleware, h.login)
	r.POST("/api/v1/users/register", limitMiddleware, h.register)
}

// register godoc
// @Summary Register a new user
// @Description Creates an account with an optional opening balance.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid input or username taken"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /users/register [post]
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Register", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.RegisterAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to register user")
		return
	}

	logger.Info("User registered", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// login godoc
// @Summary User login
// @Description Authenticates a user and returns a JWT token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Login", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, logger, err, "Login failed")
		return
	}

	token, expiresAt, err := h.authService.GenerateAccessToken(c.Request.Context(), account)
	if err != nil {
		respondError(c, logger, err, "Failed to generate token")
		return
	}

	logger.Info("User logged in", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}
