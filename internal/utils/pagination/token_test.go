package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHistoryCursor(t *testing.T) {
	// Standard value with nanoseconds
	cursor := domain.HistoryCursor{
		CreatedAt:  time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC),
		TransferID: 1789456123456,
	}

	token := EncodeHistoryCursor(cursor)
	assert.NotEmpty(t, token, "Token should not be empty")
	assert.NotContains(t, token, "+", "Token must be URL safe")
	assert.NotContains(t, token, "/", "Token must be URL safe")

	decoded, err := DecodeHistoryCursor(token)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.TransferID, decoded.TransferID)

	// Non-UTC times are normalised
	local := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3*3600))
	decoded, err = DecodeHistoryCursor(EncodeHistoryCursor(domain.HistoryCursor{CreatedAt: local, TransferID: 7}))
	require.NoError(t, err)
	assert.True(t, local.Equal(decoded.CreatedAt))
}

func TestDecodeHistoryCursorEmpty(t *testing.T) {
	cursor, err := DecodeHistoryCursor("")
	assert.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeHistoryCursorErrors(t *testing.T) {
	// Invalid base64
	_, err := DecodeHistoryCursor("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	// Missing separator
	_, err = DecodeHistoryCursor(base64.RawURLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	// Invalid date
	_, err = DecodeHistoryCursor(base64.RawURLEncoding.EncodeToString([]byte("notadate|12")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")

	// Invalid id
	_, err = DecodeHistoryCursor(base64.RawURLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|abc")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transfer id parse")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}

func TestEncodeDecodeMultiFieldToken(t *testing.T) {
	fields := []string{"field1", "field2", "field3"}
	parts, err := DecodeMultiFieldToken(EncodeMultiFieldToken(fields...))
	require.NoError(t, err)
	assert.Equal(t, fields, parts)

	parts, err = DecodeMultiFieldToken(EncodeMultiFieldToken())
	require.NoError(t, err)
	assert.Equal(t, []string{""}, parts)
}
