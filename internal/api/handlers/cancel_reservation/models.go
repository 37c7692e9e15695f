package cancel_reservation

import (
	"time"

	cancelReservation "github.com/m04kA/SMC-ParkingService/internal/usecase/cancel_reservation"
)

// CancelReservationRequest HTTP request model
type CancelReservationRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// CancelReservationResponse HTTP response model
type CancelReservationResponse struct {
	ID                 int64   `json:"id"`
	SlotID             int64   `json:"slotId"`
	RenterID           int64   `json:"renterId"`
	Start              string  `json:"start"`
	End                string  `json:"end"`
	Status             string  `json:"status"`
	CancelledBy        int64   `json:"cancelledBy"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        string  `json:"cancelledAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CancelReservationRequest) ToUseCaseRequest(reservationID int64) *cancelReservation.Request {
	return &cancelReservation.Request{
		ReservationID: reservationID,
		Reason:        r.Reason,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelReservation.Response) *CancelReservationResponse {
	return &CancelReservationResponse{
		ID:                 resp.ID,
		SlotID:             resp.SlotID,
		RenterID:           resp.RenterID,
		Start:              resp.Start.UTC().Format(time.RFC3339),
		End:                resp.End.UTC().Format(time.RFC3339),
		Status:             resp.Status,
		CancelledBy:        resp.CancelledBy,
		CancellationReason: resp.CancellationReason,
		CancelledAt:        resp.CancelledAt.UTC().Format(time.RFC3339),
	}
}
