package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено в tenant
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrOverlap возвращается, когда вставка нарушает exclusion constraint
	// (пересечение с активным бронированием того же слота)
	ErrOverlap = errors.New("reservation.repository: overlapping reservation")

	// ErrInvalidTransition возвращается, когда статус строки не допускает переход
	ErrInvalidTransition = errors.New("reservation.repository: invalid status transition")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
