package txmanager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
)

func TestRetry_RetriesContendedUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int

	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3}, func(attempt int, _ error) {
		retried = append(retried, attempt)
	}, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: lock", pgerr.ErrContended)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 2}, nil, func(context.Context) error {
		calls++
		return pgerr.ErrContended
	})

	assert.ErrorIs(t, err, pgerr.ErrContended)
	assert.Equal(t, 2, calls)
}

func TestRetry_DoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 5}, nil, func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
