package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateAmount(t *testing.T) {
	testCases := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"positive cents", "500.00", false},
		{"one minor unit", "0.01", false},
		{"zero", "0", true},
		{"negative", "-1", true},
		{"sub-cent", "10.005", true},
		{"max balance", "9999999999999.99", false},
		{"above max balance", "10000000000000.00", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tc.amount))
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuantizeRoundsHalfToEven(t *testing.T) {
	assert.Equal(t, "10.00", Quantize(decimal.RequireFromString("10.005")).StringFixed(2))
	assert.Equal(t, "10.02", Quantize(decimal.RequireFromString("10.015")).StringFixed(2))
	assert.True(t, IsQuantized(decimal.RequireFromString("10.10")))
	assert.False(t, IsQuantized(decimal.RequireFromString("10.101")))
}

func TestAccountCanDebit(t *testing.T) {
	acc := Account{Balance: decimal.RequireFromString("500.00")}
	assert.True(t, acc.CanDebit(decimal.RequireFromString("500.00")))
	assert.False(t, acc.CanDebit(decimal.RequireFromString("500.01")))
}
