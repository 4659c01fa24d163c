package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/dto"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler serves the caller's own profile.
type userHandler struct {
	accountService portssvc.AccountSvcFacade
}

func registerUserRoutes(rg *gin.RouterGroup, accountSvc portssvc.AccountSvcFacade) {
	h := &userHandler{accountService: accountSvc}
	rg.GET("/users/me", h.me)
}

// me godoc
// @Summary Current user
// @Description Returns the authenticated user's account.
// @Tags users
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Security BasicAuth
// @Router /users/me [get]
func (h *userHandler) me(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
