package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// Defaults for history listings.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ClampLimit applies the default for non-positive limits and caps the rest.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeHistoryCursor creates an opaque, URL-safe token from the keyset
// position (created_at, transfer_id) of the last record of a page.
func EncodeHistoryCursor(cursor domain.HistoryCursor) string {
	return EncodeMultiFieldToken(cursor.CreatedAt.UTC().Format(timeFormat), strconv.FormatInt(cursor.TransferID, 10))
}

// DecodeHistoryCursor parses a token produced by EncodeHistoryCursor.
// An empty token means "start from the newest record" and yields nil.
func DecodeHistoryCursor(token string) (*domain.HistoryCursor, error) {
	if token == "" {
		return nil, nil
	}
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid pagination token format (split)")
	}

	createdAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	transferID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (transfer id parse): %w", err)
	}

	return &domain.HistoryCursor{CreatedAt: createdAt, TransferID: transferID}, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}
