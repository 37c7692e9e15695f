package slots

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден в tenant участника
	ErrSlotNotFound = errors.New("slot not found")

	// ErrDuplicateLabel возвращается, когда метка уже занята в tenant
	ErrDuplicateLabel = errors.New("slot label already exists")

	// ErrInvalidOwner возвращается, когда владелец не является активным участником tenant
	ErrInvalidOwner = errors.New("slot owner is not an active member of the community")

	// ErrNoOwner возвращается при запросе контакта владельца общего слота
	ErrNoOwner = errors.New("slot has no owner")

	// ErrAccessDenied возвращается, когда у участника нет прав на действие со слотом
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slots service: internal error")
)
