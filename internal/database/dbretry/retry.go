package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	maxElapsedTime  = 30 * time.Second
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	maxRetries      = uint64(5)

	conflictInitialInterval = 20 * time.Millisecond
	conflictMaxInterval     = 250 * time.Millisecond
)

// conflictCodes are SQLSTATEs raised when concurrent transactions collide on
// the same rows. The whole transaction must be replayed.
var conflictCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"23505": {}, // unique_violation
	"55P03": {}, // lock_not_available
}

// IsConflictError reports whether err is contention that a replay of the
// enclosing transaction can resolve.
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, types.ErrConflict) {
		return true
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		_, ok := conflictCodes[pgerr.Field('C')]
		return ok
	}

	return false
}

// IsRetryableError checks if the given error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		switch pgerr.Field('C') {
		case "08000", // connection_exception
			"08003", // connection_does_not_exist
			"08006", // connection_failure
			"08001", // sqlclient_unable_to_establish_sqlconnection
			"08004", // sqlserver_rejected_establishment_of_sqlconnection
			"08007", // transaction_resolution_unknown
			"40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"57P01", // admin_shutdown
			"57P02", // crash_shutdown
			"57P03", // cannot_connect_now
			"55P03": // lock_not_available
			return true
		}
		return false
	}

	// A cancelled caller must not be retried
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "i/o timeout")
}

// Operation wraps a database operation with retry logic.
func Operation[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)

	err := backoff.Retry(func() error {
		var err error
		result, err = operation(ctx)
		if err != nil {
			if !IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			lastErr = err
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if lastErr != nil && !errors.Is(err, lastErr) {
			return result, fmt.Errorf("database operation failed after retries: %w", lastErr)
		}
		return result, err
	}

	return result, nil
}

// NoResult wraps a database operation that doesn't return a result.
func NoResult(ctx context.Context, operation func(context.Context) error) error {
	_, err := Operation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// Transaction wraps a database transaction with retry logic.
func Transaction(ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) error) error {
	return NoResult(ctx, func(ctx context.Context) error {
		return db.RunInTx(ctx, nil, fn)
	})
}

// Conflict runs fn up to maxAttempts times, replaying it while it fails with a
// conflict error. Any other error stops immediately and is returned unchanged.
// When attempts run out the last conflict is returned wrapped in
// types.ErrConflict.
func Conflict(ctx context.Context, maxAttempts int, fn func(context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(conflictInitialInterval),
		backoff.WithMaxInterval(conflictMaxInterval),
		backoff.WithMaxElapsedTime(0),
	), uint64(maxAttempts-1)) //nolint:gosec // maxAttempts is positive

	err := backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsConflictError(err) {
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && lastErr != nil {
		return ctxErr
	}

	if lastErr != nil && errors.Is(err, lastErr) {
		if errors.Is(lastErr, types.ErrConflict) {
			return lastErr
		}
		return fmt.Errorf("%w: %w", types.ErrConflict, lastErr)
	}

	return err
}
