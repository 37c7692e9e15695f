package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден в tenant
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrDuplicateLabel возвращается, когда метка слота уже занята в tenant
	ErrDuplicateLabel = errors.New("slot.repository: duplicate label")

	// ErrOwnerNotInTenant возвращается, когда владелец не состоит в tenant слота
	ErrOwnerNotInTenant = errors.New("slot.repository: owner is not a member of tenant")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
