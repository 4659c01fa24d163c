// Package coordinator serializes ledger operations that touch the same
// accounts and retries them when the store reports a version conflict.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/middleware"
	"github.com/cenkalti/backoff/v4"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts     int           // Total attempts including the first one
	InitialInterval time.Duration // Wait before the first retry
	MaxInterval     time.Duration // Upper bound for a single wait
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// Coordinator grants exclusive access to sets of accounts.
type Coordinator struct {
	locker *keyedLocker
	cfg    Config
}

// New creates a Coordinator. Non-positive values fall back to DefaultConfig.
func New(cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	return &Coordinator{locker: newKeyedLocker(), cfg: cfg}
}

// Execute runs op while holding exclusive access to every account in
// accountIDs. Locks are taken in ascending id order and released after op
// returns. When op fails with apperrors.ErrVersionConflict the locks are
// released, the coordinator backs off, and op runs again from scratch; once
// the attempt budget is spent the result is apperrors.ErrConcurrencyConflict.
// Any other error from op is returned unchanged and never retried.
func (c *Coordinator) Execute(ctx context.Context, accountIDs []string, op func(ctx context.Context) error) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	attempts := 0

	attempt := func() error {
		attempts++
		release, err := c.locker.acquire(ctx, accountIDs)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer release()

		err = op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrVersionConflict) {
			logger.Warn("Ledger operation hit a version conflict",
				slog.Int("attempt", attempts),
				slog.Int("max_attempts", c.cfg.MaxAttempts),
				slog.Any("accounts", accountIDs),
				slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(attempt, c.newBackOff(ctx))
	if err != nil && errors.Is(err, apperrors.ErrVersionConflict) {
		logger.Error("Ledger operation gave up after repeated conflicts",
			slog.Int("attempts", attempts),
			slog.Any("accounts", accountIDs))
		return fmt.Errorf("%w: gave up after %d attempts: %v", apperrors.ErrConcurrencyConflict, attempts, err)
	}
	return err
}

func (c *Coordinator) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval
	b.MaxElapsedTime = 0 // bounded by attempts instead
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)
}
