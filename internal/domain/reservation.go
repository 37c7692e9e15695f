package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusRejected  ReservationStatus = "rejected" // итог отклонённой попытки, в БД не сохраняется
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// IsValid returns true for statuses that can be stored
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// BlockingStatuses статусы, которые занимают слот.
// Используются при проверке пересечений и в exclusion constraint.
var BlockingStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
}

// Reservation is a time-bounded claim on a slot by a renter
type Reservation struct {
	ID       int64
	TenantID int64
	SlotID   int64
	RenterID int64
	Window   Window
	Status   ReservationStatus

	// TotalPrice is set once by the engine and never changed afterwards.
	// Invalid only for quote-required reservations.
	TotalPrice    decimal.NullDecimal
	QuoteRequired bool

	CancelledBy        *int64
	CancellationReason *string
	CancelledAt        *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBlocking returns true if the reservation occupies its slot
func (r *Reservation) IsBlocking() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// CanBeCancelled returns true if the status allows cancellation
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// IsDue returns true if a confirmed reservation has ended and should be completed
func (r *Reservation) IsDue(now time.Time) bool {
	return r.Status == StatusConfirmed && !now.Before(r.Window.End)
}

// IsTerminal returns true for statuses without outgoing transitions
func (r *Reservation) IsTerminal() bool {
	return r.Status == StatusCancelled || r.Status == StatusCompleted || r.Status == StatusRejected
}

// Price returns the total price and whether it was computed
func (r *Reservation) Price() (decimal.Decimal, bool) {
	if !r.TotalPrice.Valid {
		return decimal.Zero, false
	}
	return r.TotalPrice.Decimal, true
}

// ReservationsFilter фильтр списка бронирований
type ReservationsFilter struct {
	RenterID *int64
	SlotID   *int64
	Status   *ReservationStatus
	From     *time.Time // end_at > From
	To       *time.Time // start_at < To
	Limit    uint64
}
