package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/biasnet/influence/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func TestWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		failures      int
		expectedCalls int
		expectedErr   error
	}{
		{name: "succeeds first try", failures: 0, expectedCalls: 1},
		{name: "succeeds after retries", failures: 2, expectedCalls: 3},
		{name: "fails all retries", failures: 100, expectedCalls: 4, expectedErr: errTemporary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			operation := func() (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, errTemporary
				}
				return calls, nil
			}

			opts := utils.RetryOptions{
				MaxElapsedTime:  time.Second,
				InitialInterval: time.Millisecond,
				MaxInterval:     5 * time.Millisecond,
				MaxRetries:      3,
			}

			result, err := utils.WithRetry(t.Context(), operation, opts)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCalls, result)
			}

			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestWithRetryContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	calls := 0

	operation := func() (struct{}, error) {
		calls++
		return struct{}{}, errTemporary
	}

	opts := utils.RetryOptions{
		MaxElapsedTime:  time.Second,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
		MaxRetries:      5,
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := utils.WithRetry(ctx, operation, opts)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls, 5)
}

func TestGetStartupRetryOptions(t *testing.T) {
	t.Parallel()

	opts := utils.GetStartupRetryOptions(5, 500, 5000)

	assert.Equal(t, uint64(5), opts.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, opts.InitialInterval)
	assert.Equal(t, 5*time.Second, opts.MaxInterval)
	assert.Equal(t, 2*time.Minute, opts.MaxElapsedTime)
}
