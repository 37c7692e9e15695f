package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrInvalidPeriod возвращается, когда начало периода не раньше конца
	ErrInvalidPeriod = errors.New("invalid period")
)

// Request модели

// ListReservationsRequest фильтр списка бронирований
type ListReservationsRequest struct {
	Status *string    `json:"status,omitempty"`
	From   *time.Time `json:"from,omitempty"` // бронирования, заканчивающиеся позже from
	To     *time.Time `json:"to,omitempty"`   // бронирования, начинающиеся раньше to
	Limit  uint64     `json:"limit,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListReservationsRequest) ToDomainFilter() (domain.ReservationsFilter, error) {
	filter := domain.ReservationsFilter{
		From:  r.From,
		To:    r.To,
		Limit: r.Limit,
	}

	if r.From != nil && r.To != nil && !r.To.After(*r.From) {
		return filter, ErrInvalidPeriod
	}

	if r.Status != nil {
		status, err := ToDomainReservationStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID            int64     `json:"id"`
	SlotID        int64     `json:"slotId"`
	RenterID      int64     `json:"renterId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	TotalPrice    *string   `json:"totalPrice,omitempty"`
	QuoteRequired bool      `json:"quoteRequired"`

	CancelledBy        *int64     `json:"cancelledBy,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO; цена форматируется с minorUnits знаками
func FromDomainReservation(r *domain.Reservation, minorUnits int32) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:                 r.ID,
		SlotID:             r.SlotID,
		RenterID:           r.RenterID,
		Start:              r.Window.Start,
		End:                r.Window.End,
		Status:             string(r.Status),
		QuoteRequired:      r.QuoteRequired,
		CancelledBy:        r.CancelledBy,
		CancellationReason: r.CancellationReason,
		CancelledAt:        r.CancelledAt,
		CompletedAt:        r.CompletedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if price, ok := r.Price(); ok {
		formatted := price.StringFixed(minorUnits)
		resp.TotalPrice = &formatted
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(reservations []*domain.Reservation, minorUnits int32) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(reservations)),
	}

	for _, r := range reservations {
		if item := FromDomainReservation(r, minorUnits); item != nil {
			resp.Reservations = append(resp.Reservations, *item)
		}
	}

	return resp
}

// ToDomainReservationStatus конвертирует строку в domain.ReservationStatus с валидацией
func ToDomainReservationStatus(status string) (domain.ReservationStatus, error) {
	s := domain.ReservationStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
