package slots

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
	ListActive(ctx context.Context, tenantID int64) ([]*domain.Slot, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status domain.SlotStatus, at time.Time) error
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetMember(ctx context.Context, tenantID, id int64) (*domain.User, error)
}

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	ListBlocking(ctx context.Context, tenantID, slotID int64, window domain.Window) ([]*domain.Reservation, error)
}

// SlotCache кэш списка активных слотов
type SlotCache interface {
	Get(ctx context.Context, tenantID int64) ([]*domain.Slot, bool)
	Set(ctx context.Context, tenantID int64, slots []*domain.Slot)
	Invalidate(ctx context.Context, tenantID int64)
}

// PriceCalculator калькулятор стоимости
type PriceCalculator interface {
	ComputePrice(slot *domain.Slot, window domain.Window) (decimal.Decimal, error)
	ValidateRate(rate decimal.Decimal) error
	Format(amount decimal.Decimal) string
	MinorUnits() int
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
