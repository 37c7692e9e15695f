package create_reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/service/authz"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInvalidWindow базовая ошибка некорректного интервала бронирования
	ErrInvalidWindow = errors.New("create_reservation: invalid window")

	// ErrEmptyWindow возвращается, когда конец интервала не позже начала
	ErrEmptyWindow = fmt.Errorf("%w: end must be after start", ErrInvalidWindow)

	// ErrWindowInPast возвращается, когда начало интервала в прошлом
	ErrWindowInPast = fmt.Errorf("%w: start is in the past", ErrInvalidWindow)

	// ErrWindowTooShort возвращается, когда интервал короче минимальной длительности
	ErrWindowTooShort = fmt.Errorf("%w: shorter than minimum duration", ErrInvalidWindow)

	// ErrWindowTooLong возвращается, когда интервал длиннее максимальной длительности
	ErrWindowTooLong = fmt.Errorf("%w: longer than maximum duration", ErrInvalidWindow)

	// ErrWindowTooFarAhead возвращается, когда начало дальше горизонта бронирования
	ErrWindowTooFarAhead = fmt.Errorf("%w: start is beyond the booking horizon", ErrInvalidWindow)

	// ErrSlotNotFound возвращается, когда слот не найден в tenant участника
	ErrSlotNotFound = errors.New("create_reservation: slot not found")

	// ErrDenied возвращается, когда участнику нельзя бронировать слот (см. DeniedError)
	ErrDenied = errors.New("create_reservation: reservation denied")

	// ErrAlreadyBooked возвращается, когда интервал пересекается с активным бронированием
	ErrAlreadyBooked = errors.New("create_reservation: slot is already booked for this window")

	// ErrContended возвращается, когда конкурирующие транзакции не дали завершить бронирование
	// за отведённое число попыток. Запрос можно повторить.
	ErrContended = errors.New("create_reservation: contended, retry later")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)

// DeniedError отказ с причиной от authz.CanReserve
type DeniedError struct {
	Reason authz.Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDenied.Error(), e.Reason)
}

// Is позволяет проверять отказ через errors.Is(err, ErrDenied)
func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}
