package utils

import (
	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with exactly the ledger's minor-unit precision.
// Example: 1500 returns "1500.00"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(domain.MinorUnitScale)
}
