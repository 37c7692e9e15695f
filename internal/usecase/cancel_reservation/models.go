package cancel_reservation

import "time"

// Request модель запроса на отмену бронирования
type Request struct {
	ReservationID int64
	Reason        *string
}

// Response модель ответа с отменённым бронированием
type Response struct {
	ID                 int64
	SlotID             int64
	RenterID           int64
	Start              time.Time
	End                time.Time
	Status             string
	CancelledBy        int64
	CancellationReason *string
	CancelledAt        time.Time
}
