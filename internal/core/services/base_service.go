package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// classifyError normalises an error leaving a service. Typed kinds and
// context errors pass through unchanged; anything else is a store failure and
// is logged and reported as apperrors.ErrStoreUnavailable.
func (s *BaseService) classifyError(ctx context.Context, op string, err error, keyvals ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperrors.IsLedgerKind(err) && !errors.Is(err, apperrors.ErrVersionConflict) {
		return err
	}
	s.LogError(ctx, err, "Store failure during "+op, keyvals...)
	return fmt.Errorf("%w: %s: %w", apperrors.ErrStoreUnavailable, op, err)
}
