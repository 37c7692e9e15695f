package complete_reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Reservation, error)
	Complete(ctx context.Context, tenantID, id int64, at time.Time) error
	CompleteDue(ctx context.Context, tenantID int64, now time.Time, limit uint64) (int64, error)
}

// TenantRepository источник активных tenant для фонового завершения
type TenantRepository interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error
}

// Metrics учёт завершённых бронирований и повторов
type Metrics interface {
	RecordCompleted(trigger string, count int)
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
