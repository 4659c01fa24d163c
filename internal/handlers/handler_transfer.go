package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/dto"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// transferHandler handles transfers between users and the transfer history.
type transferHandler struct {
	ledgerService portssvc.LedgerSvcFacade
	posthog       *utils.PosthogClientWrapper
}

func registerTransferRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade, posthog *utils.PosthogClientWrapper) {
	h := &transferHandler{ledgerService: ledgerSvc, posthog: posthog}

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.createTransfer)
		transfers.GET("", h.listTransfers)
		transfers.GET("/:transferID", h.getTransfer)
	}
}

// createTransfer godoc
// @Summary Transfer money to another user
// @Description Moves the amount, rounded half-to-even to cents, from the caller to toUsername.
// @Description Repeating a request with the same Idempotency-Key returns the original transfer.
// @Tags transfers
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client-chosen key, at most 64 characters"
// @Param transfer body dto.TransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Invalid amount, self transfer or insufficient funds"
// @Failure 404 {object} ErrorResponse "Recipient not found"
// @Failure 409 {object} ErrorResponse "Too much contention"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Security BearerAuth
// @Security BasicAuth
// @Router /transfers [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var headers dto.TransferHeaders
	if err := c.ShouldBindHeader(&headers); err != nil {
		logger.Warn("Invalid Idempotency-Key header", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Idempotency-Key header: " + err.Error()})
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	record, err := h.ledgerService.Transfer(c.Request.Context(), req.ToIntent(accountID, headers.IdempotencyKey))
	if err != nil {
		respondError(c, logger, err, "Transfer failed")
		return
	}

	middleware.PosthogEvent(c, h.posthog, "transfer_created", map[string]any{
		"transfer_id": strconv.FormatInt(record.TransferID, 10),
		"amount":      utils.FormatAmount(record.Amount),
	})
	c.JSON(http.StatusCreated, dto.ToTransferResponse(record))
}

// listTransfers godoc
// @Summary Transfer history
// @Description Lists the caller's transfers, newest first.
// @Tags transfers
// @Produce json
// @Param limit query int false "Page size (1-100)" default(50)
// @Param cursor query string false "nextCursor of the previous page"
// @Success 200 {object} dto.ListTransfersResponse
// @Failure 400 {object} ErrorResponse "Invalid limit or cursor"
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Security BasicAuth
// @Router /transfers [get]
func (h *transferHandler) listTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListTransfersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransfers", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.ledgerService.GetHistory(c.Request.Context(), accountID, params.Cursor, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, dto.ToListTransfersResponse(page))
}

// getTransfer godoc
// @Summary Get a transfer
// @Description Returns a transfer the caller sent or received.
// @Tags transfers
// @Produce json
// @Param transferID path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Malformed transfer ID"
// @Failure 403 {object} ErrorResponse "Caller is not a party to the transfer"
// @Failure 404 {object} ErrorResponse "Transfer not found"
// @Security BearerAuth
// @Security BasicAuth
// @Router /transfers/{transferID} [get]
func (h *transferHandler) getTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	transferID, err := strconv.ParseInt(c.Param("transferID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid transfer ID"})
		return
	}

	record, err := h.ledgerService.GetTransfer(c.Request.Context(), transferID, accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transfer")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(record))
}
