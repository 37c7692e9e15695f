package models

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Request модели

// CreateSlotRequest запрос на создание слота
type CreateSlotRequest struct {
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	OwnerID    *int64  `json:"ownerId,omitempty"`    // admin: пусто - общий слот; resident: только свой ID
	HourlyRate *string `json:"hourlyRate,omitempty"` // пусто - цена по договорённости с владельцем
}

// UpdateSlotStatusRequest запрос на смену статуса слота
type UpdateSlotStatusRequest struct {
	Status string `json:"status"`
}

// Response модели

// SlotResponse ответ с данными слота
type SlotResponse struct {
	ID            int64     `json:"id"`
	Label         string    `json:"label"`
	Type          string    `json:"type"`
	OwnerID       *int64    `json:"ownerId,omitempty"`
	Shared        bool      `json:"shared"`
	HourlyRate    *string   `json:"hourlyRate,omitempty"`
	QuoteRequired bool      `json:"quoteRequired"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SlotListResponse ответ со списком слотов
type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// OwnerContactResponse контакт владельца для согласования цены
type OwnerContactResponse struct {
	UserID      int64   `json:"userId"`
	DisplayName string  `json:"displayName"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// BusyWindow занятый интервал слота [start, end)
type BusyWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyWindowsResponse занятость слота в периоде
type BusyWindowsResponse struct {
	SlotID int64        `json:"slotId"`
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Busy   []BusyWindow `json:"busy"`
}

// QuoteResponse предварительный расчёт стоимости (не сохраняется)
type QuoteResponse struct {
	SlotID          int64                 `json:"slotId"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	DurationMinutes int64                 `json:"durationMinutes"`
	HourlyRate      *string               `json:"hourlyRate,omitempty"`
	TotalPrice      *string               `json:"totalPrice,omitempty"`
	QuoteRequired   bool                  `json:"quoteRequired"`
	OwnerContact    *OwnerContactResponse `json:"ownerContact,omitempty"`
}

// Методы конвертации

// FromDomainSlot конвертирует domain модель в DTO; тариф форматируется с minorUnits знаками
func FromDomainSlot(s *domain.Slot, minorUnits int32) *SlotResponse {
	if s == nil {
		return nil
	}

	resp := &SlotResponse{
		ID:            s.ID,
		Label:         s.Label,
		Type:          string(s.Type),
		OwnerID:       s.OwnerID,
		Shared:        s.IsShared(),
		QuoteRequired: s.IsQuoteRequired(),
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}

	if rate, ok := s.HourlyRate(); ok {
		formatted := rate.StringFixed(minorUnits)
		resp.HourlyRate = &formatted
	}

	return resp
}

// FromDomainSlotList конвертирует список domain моделей в DTO
func FromDomainSlotList(slots []*domain.Slot, minorUnits int32) *SlotListResponse {
	resp := &SlotListResponse{
		Slots: make([]SlotResponse, 0, len(slots)),
	}

	for _, slot := range slots {
		if slotResp := FromDomainSlot(slot, minorUnits); slotResp != nil {
			resp.Slots = append(resp.Slots, *slotResp)
		}
	}

	return resp
}

// FromDomainUser конвертирует пользователя в контакт владельца
func FromDomainUser(u *domain.User) *OwnerContactResponse {
	if u == nil {
		return nil
	}
	return &OwnerContactResponse{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Email:       u.Email,
	}
}

// FromDomainReservations конвертирует бронирования в занятые интервалы.
// Данные арендатора не раскрываются.
func FromDomainReservations(slotID int64, from, to time.Time, reservations []*domain.Reservation) *BusyWindowsResponse {
	resp := &BusyWindowsResponse{
		SlotID: slotID,
		From:   from,
		To:     to,
		Busy:   make([]BusyWindow, 0, len(reservations)),
	}

	for _, r := range reservations {
		resp.Busy = append(resp.Busy, BusyWindow{Start: r.Window.Start, End: r.Window.End})
	}

	return resp
}

// ToDomainSlotStatus конвертирует строку в domain.SlotStatus с валидацией
func ToDomainSlotStatus(status string) (domain.SlotStatus, bool) {
	s := domain.SlotStatus(status)
	return s, s.IsValid()
}

// ToDomainSlotType конвертирует строку в domain.SlotType с валидацией
func ToDomainSlotType(slotType string) (domain.SlotType, bool) {
	t := domain.SlotType(slotType)
	return t, t.IsValid()
}
