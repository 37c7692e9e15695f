package txmanager

import (
	"context"
	"errors"
	"time"

	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
)

// RetryPolicy ограничение повторов для конфликтующих транзакций
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // линейный: Backoff * номер попытки
}

// Retry повторяет fn, пока она возвращает pgerr.ErrContended и не исчерпаны попытки.
// Любая другая ошибка возвращается сразу.
func Retry(ctx context.Context, policy RetryPolicy, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !errors.Is(err, pgerr.ErrContended) || attempt >= attempts {
			return err
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(policy.Backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
