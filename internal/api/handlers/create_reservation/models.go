package create_reservation

import (
	"time"

	createReservation "github.com/m04kA/SMC-ParkingService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	SlotID int64     `json:"slotId"`
	Start  time.Time `json:"start"` // RFC 3339
	End    time.Time `json:"end"`
}

// OwnerContact контакт владельца для согласования цены
type OwnerContact struct {
	UserID      int64   `json:"userId"`
	DisplayName string  `json:"displayName"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID            int64         `json:"id"`
	SlotID        int64         `json:"slotId"`
	RenterID      int64         `json:"renterId"`
	Start         string        `json:"start"`
	End           string        `json:"end"`
	Status        string        `json:"status"`
	TotalPrice    *string       `json:"totalPrice,omitempty"`
	QuoteRequired bool          `json:"quoteRequired"`
	OwnerContact  *OwnerContact `json:"ownerContact,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest() *createReservation.Request {
	return &createReservation.Request{
		SlotID: r.SlotID,
		Start:  r.Start.UTC(),
		End:    r.End.UTC(),
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	out := &ReservationResponse{
		ID:            resp.ID,
		SlotID:        resp.SlotID,
		RenterID:      resp.RenterID,
		Start:         resp.Start.UTC().Format(time.RFC3339),
		End:           resp.End.UTC().Format(time.RFC3339),
		Status:        resp.Status,
		TotalPrice:    resp.TotalPrice,
		QuoteRequired: resp.QuoteRequired,
		CreatedAt:     resp.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     resp.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if c := resp.OwnerContact; c != nil {
		out.OwnerContact = &OwnerContact{
			UserID:      c.UserID,
			DisplayName: c.DisplayName,
			Phone:       c.Phone,
			Email:       c.Email,
		}
	}
	return out
}
