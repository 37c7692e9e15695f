// Package authz решает, может ли участник tenant выполнить действие над слотом
// или бронированием. Все функции чистые: состояние передаётся параметрами,
// поэтому решение можно повторно вычислить внутри транзакции по заблокированной строке.
package authz

import "github.com/m04kA/SMC-ParkingService/internal/domain"

// Reason причина отказа
type Reason string

const (
	ReasonNone                          Reason = ""
	ReasonSlotUnavailable               Reason = "SlotUnavailable"
	ReasonSlotReservedByAnotherResident Reason = "SlotReservedByAnotherResident"
	ReasonNotReservationParty           Reason = "NotReservationParty"
	ReasonNotSlotManager                Reason = "NotSlotManager"
)

// Decision результат проверки
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason) Decision { return Decision{Reason: reason} }

// CanReserve проверяет право бронирования слота. Правила применяются по порядку:
//  1. слот не active -> SlotUnavailable (для всех, включая admin)
//  2. admin -> разрешено
//  3. общий слот (без владельца) -> разрешено
//  4. владелец слота -> разрешено
//  5. иначе -> SlotReservedByAnotherResident
func CanReserve(actor domain.ActorContext, slot *domain.Slot) Decision {
	if actor.IsZero() || slot == nil || slot.TenantID != actor.TenantID() {
		return deny(ReasonSlotUnavailable)
	}
	if !slot.IsActive() {
		return deny(ReasonSlotUnavailable)
	}
	if actor.IsAdmin() {
		return allow()
	}
	if slot.IsShared() {
		return allow()
	}
	if slot.IsOwnedBy(actor.UserID()) {
		return allow()
	}
	return deny(ReasonSlotReservedByAnotherResident)
}

// CanManageSlot владелец слота или admin
func CanManageSlot(actor domain.ActorContext, slot *domain.Slot) Decision {
	if actor.IsZero() || slot == nil || slot.TenantID != actor.TenantID() {
		return deny(ReasonNotSlotManager)
	}
	if actor.IsAdmin() || slot.IsOwnedBy(actor.UserID()) {
		return allow()
	}
	return deny(ReasonNotSlotManager)
}

// CanCancel арендатор, владелец слота или admin
func CanCancel(actor domain.ActorContext, res *domain.Reservation, slot *domain.Slot) Decision {
	if CanView(actor, res, slot) {
		return allow()
	}
	return deny(ReasonNotReservationParty)
}

// CanView бронирование видят арендатор, владелец слота и admin
func CanView(actor domain.ActorContext, res *domain.Reservation, slot *domain.Slot) bool {
	if actor.IsZero() || res == nil || res.TenantID != actor.TenantID() {
		return false
	}
	if actor.IsAdmin() || res.RenterID == actor.UserID() {
		return true
	}
	return slot != nil && slot.ID == res.SlotID && slot.IsOwnedBy(actor.UserID())
}
