package actor

import "errors"

var (
	// ErrUnauthenticated возвращается при невалидном токене, отсутствующем или отключённом пользователе
	ErrUnauthenticated = errors.New("actor: unauthenticated")

	// ErrNoTenantAssigned возвращается, когда у пользователя нет tenant (ошибка заведения данных)
	ErrNoTenantAssigned = errors.New("actor: user has no tenant assigned")

	// ErrTenantInactive возвращается, когда tenant пользователя отключён
	ErrTenantInactive = errors.New("actor: tenant is inactive")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("actor: internal error")
)
