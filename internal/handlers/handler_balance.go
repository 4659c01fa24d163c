package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/balance_service/internal/core/domain"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/dto"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// balanceHandler exposes the caller's balance and single-account mutations.
type balanceHandler struct {
	ledgerService portssvc.LedgerSvcFacade
	posthog       *utils.PosthogClientWrapper
}

func registerBalanceRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade, posthog *utils.PosthogClientWrapper) {
	h := &balanceHandler{ledgerService: ledgerSvc, posthog: posthog}

	balance := rg.Group("/balance")
	{
		balance.GET("", h.getBalance)
		balance.POST("/deposit", h.deposit)
		balance.POST("/withdraw", h.withdraw)
	}
}

// getBalance godoc
// @Summary Current balance
// @Tags balance
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Security BasicAuth
// @Router /balance [get]
func (h *balanceHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// deposit godoc
// @Summary Deposit money
// @Description Adds the amount, rounded half-to-even to cents, to the caller's balance.
// @Tags balance
// @Accept json
// @Produce json
// @Param request body dto.AmountRequest true "Amount"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Failure 409 {object} ErrorResponse "Too much contention"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Security BearerAuth
// @Security BasicAuth
// @Router /balance/deposit [post]
func (h *balanceHandler) deposit(c *gin.Context) {
	h.mutate(c, "deposit", "Deposit successful", h.ledgerService.Deposit)
}

// withdraw godoc
// @Summary Withdraw money
// @Description Removes the amount, rounded half-to-even to cents, from the caller's balance.
// @Tags balance
// @Accept json
// @Produce json
// @Param request body dto.AmountRequest true "Amount"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure 409 {object} ErrorResponse "Too much contention"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Security BearerAuth
// @Security BasicAuth
// @Router /balance/withdraw [post]
func (h *balanceHandler) withdraw(c *gin.Context) {
	h.mutate(c, "withdraw", "Withdrawal successful", h.ledgerService.Withdraw)
}

type balanceMutation func(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

func (h *balanceHandler) mutate(c *gin.Context, op string, message string, apply balanceMutation) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for "+op, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	amount := domain.Quantize(req.Amount)

	balance, err := apply(c.Request.Context(), accountID, amount)
	if err != nil {
		respondError(c, logger, err, "Failed to "+op)
		return
	}

	middleware.PosthogEvent(c, h.posthog, "balance_"+op, map[string]any{
		"amount": utils.FormatAmount(amount),
	})
	c.JSON(http.StatusOK, dto.MessageResponse{Message: message, Balance: utils.FormatAmount(balance)})
}
