package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions contains configuration for retry behavior.
type RetryOptions struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// GetStartupRetryOptions returns retry options for connecting to backing services at startup.
// Delays are given in milliseconds as in the config file.
func GetStartupRetryOptions(maxRetries uint64, delayMs, maxDelayMs int) RetryOptions {
	return RetryOptions{
		MaxElapsedTime:  2 * time.Minute,
		InitialInterval: time.Duration(delayMs) * time.Millisecond,
		MaxInterval:     time.Duration(maxDelayMs) * time.Millisecond,
		MaxRetries:      maxRetries,
	}
}

// WithRetry executes the given operation with exponential backoff using provided options.
func WithRetry[T any](ctx context.Context, operation func() (T, error), opts RetryOptions) (T, error) {
	var result T

	// Configure exponential backoff
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
	), opts.MaxRetries)

	// Create backoff operation with context
	backoffOperation := func() error {
		var err error
		result, err = operation()
		return err
	}

	err := backoff.Retry(backoffOperation, backoff.WithContext(b, ctx))
	return result, err
}
