package cancel_reservation

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_reservation: invalid input data")

	// ErrReservationNotFound возвращается, когда бронирование не найдено в tenant участника
	ErrReservationNotFound = errors.New("cancel_reservation: reservation not found")

	// ErrAccessDenied возвращается, когда участник не арендатор, не владелец слота и не admin
	ErrAccessDenied = errors.New("cancel_reservation: access denied")

	// ErrCannotCancel возвращается, когда статус бронирования не допускает отмену
	ErrCannotCancel = errors.New("cancel_reservation: reservation cannot be cancelled")

	// ErrGracePeriodPassed возвращается, когда до начала осталось меньше grace period
	ErrGracePeriodPassed = errors.New("cancel_reservation: cancellation window has passed")

	// ErrContended возвращается, когда строка занята конкурирующими транзакциями
	ErrContended = errors.New("cancel_reservation: contended, retry later")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_reservation: internal error")
)
