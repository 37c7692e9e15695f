package create_reservation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
}

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	HasConflict(ctx context.Context, tenantID, slotID int64, window domain.Window, excludingID *int64) (bool, error)
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetMember(ctx context.Context, tenantID, id int64) (*domain.User, error)
}

// PriceCalculator калькулятор стоимости
type PriceCalculator interface {
	ComputePrice(slot *domain.Slot, window domain.Window) (decimal.Decimal, error)
	Format(amount decimal.Decimal) string
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error
}

// Metrics учёт исходов попыток бронирования
type Metrics interface {
	RecordReservationAttempt(outcome string)
	RecordRetry(operation string)
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
