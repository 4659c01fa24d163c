package dto

import (
	"strconv"
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest is the body of a transfer to another user.
type TransferRequest struct {
	ToUsername  string          `json:"toUsername" binding:"required,min=3,max=50,notblank" example:"bob"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Description string          `json:"description" binding:"max=255" example:"rent"`
}

// ToIntent builds the engine intent for the authenticated source account.
// The amount is rounded half-to-even to minor units first.
func (r TransferRequest) ToIntent(sourceAccountID string, idempotencyKey string) domain.TransferIntent {
	return domain.TransferIntent{
		SourceAccountID:     sourceAccountID,
		DestinationUsername: r.ToUsername,
		Amount:              domain.Quantize(r.Amount),
		Description:         r.Description,
		IdempotencyKey:      idempotencyKey,
	}
}

// TransferResponse defines the data returned for a transfer record.
type TransferResponse struct {
	TransferID           string    `json:"transferID"` // Rendered as a string, ids exceed 2^53
	SourceAccountID      string    `json:"sourceAccountID"`
	DestinationAccountID string    `json:"destinationAccountID"`
	FromUsername         string    `json:"fromUsername,omitempty"`
	ToUsername           string    `json:"toUsername,omitempty"`
	Amount               string    `json:"amount" example:"500.00"`
	Description          *string   `json:"description"`
	CreatedAt            time.Time `json:"createdAt"`
}

// ToTransferResponse converts a domain.TransferRecord to its DTO.
func ToTransferResponse(t *domain.TransferRecord) TransferResponse {
	resp := TransferResponse{
		TransferID:           strconv.FormatInt(t.TransferID, 10),
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		FromUsername:         t.SourceUsername,
		ToUsername:           t.DestinationUsername,
		Amount:               t.Amount.StringFixed(domain.MinorUnitScale),
		CreatedAt:            t.CreatedAt,
	}
	if t.Description != "" {
		desc := t.Description
		resp.Description = &desc
	}
	return resp
}

// ListTransfersParams are the query parameters of a history listing.
type ListTransfersParams struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor"`
}

// ListTransfersResponse is one page of transfer history.
type ListTransfersResponse struct {
	Transfers  []TransferResponse `json:"transfers"`
	NextCursor *string            `json:"nextCursor"` // Null when there are no further pages
}

// ToListTransfersResponse converts a domain page to its DTO.
func ToListTransfersResponse(page *domain.TransferPage) ListTransfersResponse {
	resp := ListTransfersResponse{Transfers: make([]TransferResponse, 0, len(page.Transfers))}
	for i := range page.Transfers {
		resp.Transfers = append(resp.Transfers, ToTransferResponse(&page.Transfers[i]))
	}
	if page.NextCursor != "" {
		next := page.NextCursor
		resp.NextCursor = &next
	}
	return resp
}

// TransferHeaders are the optional request headers of a transfer.
type TransferHeaders struct {
	IdempotencyKey string `header:"Idempotency-Key" binding:"omitempty,max=64,printascii"`
}
