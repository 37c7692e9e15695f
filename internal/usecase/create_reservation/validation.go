package create_reservation

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotID must be positive", ErrInvalidInput)
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}

	return nil
}

// validateWindow проверяет интервал относительно текущего времени и правил.
// Граница в прошлом сравнивается с now без допуска: start == now допустим.
func validateWindow(start, end, now time.Time, rules Rules) (domain.Window, error) {
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return domain.Window{}, ErrEmptyWindow
	}

	if window.Start.Before(now) {
		return domain.Window{}, ErrWindowInPast
	}

	if d := window.Duration(); d < rules.MinDuration {
		return domain.Window{}, fmt.Errorf("%w: %s < %s", ErrWindowTooShort, d, rules.MinDuration)
	}

	if d := window.Duration(); d > rules.MaxDuration {
		return domain.Window{}, fmt.Errorf("%w: %s > %s", ErrWindowTooLong, d, rules.MaxDuration)
	}

	if window.Start.After(now.Add(rules.MaxAdvance)) {
		return domain.Window{}, fmt.Errorf("%w: more than %s ahead", ErrWindowTooFarAhead, rules.MaxAdvance)
	}

	return window, nil
}
