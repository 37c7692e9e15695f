package complete_reservations

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("complete_reservations: invalid input data")

	// ErrReservationNotFound возвращается, когда бронирование не найдено в tenant участника
	ErrReservationNotFound = errors.New("complete_reservations: reservation not found")

	// ErrAccessDenied возвращается, когда завершение вызывает не admin
	ErrAccessDenied = errors.New("complete_reservations: only admin can complete reservations")

	// ErrNotDue возвращается для неподтверждённых бронирований и бронирований, которые ещё не закончились
	ErrNotDue = errors.New("complete_reservations: reservation is not due for completion")

	// ErrContended возвращается, когда строка бронирования осталась заблокированной после всех попыток.
	// Запрос можно повторить.
	ErrContended = errors.New("complete_reservations: contended, retry later")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("complete_reservations: internal error")
)
