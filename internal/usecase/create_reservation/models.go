package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Request модель запроса на создание бронирования.
// Цены в запросе нет: она вычисляется только внутри usecase.
type Request struct {
	SlotID int64
	Start  time.Time
	End    time.Time
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID            int64
	SlotID        int64
	RenterID      int64
	Start         time.Time
	End           time.Time
	Status        string
	TotalPrice    *string // nil для бронирования с ценой по договорённости
	QuoteRequired bool

	// OwnerContact заполняется при QuoteRequired, если у слота есть владелец
	OwnerContact *domain.OwnerContact

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rules ограничения на интервал бронирования
type Rules struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	MaxAdvance  time.Duration
}

// DefaultRules ограничения по умолчанию
func DefaultRules() Rules {
	return Rules{
		MinDuration: domain.DefaultMinDuration,
		MaxDuration: domain.DefaultMaxDuration,
		MaxAdvance:  domain.DefaultMaxAdvance,
	}
}
