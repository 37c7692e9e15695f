package complete_reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

const (
	TriggerManual  = "manual"
	TriggerSweeper = "sweeper"

	retryOperation = "complete_reservation"

	// DefaultBatchSize сколько бронирований tenant завершается за одну транзакцию
	DefaultBatchSize uint64 = 500
)

// Response модель ответа на ручное завершение
type Response struct {
	ID          int64
	SlotID      int64
	RenterID    int64
	Status      string
	CompletedAt string
}

// UseCase перевод закончившихся confirmed бронирований в completed
type UseCase struct {
	reservationRepo ReservationRepository
	tenantRepo      TenantRepository
	txManager       TransactionManager
	batchSize       uint64
	retry           txmanager.RetryPolicy
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	tenantRepo TenantRepository,
	txManager TransactionManager,
	batchSize uint64,
	retry txmanager.RetryPolicy,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		tenantRepo:      tenantRepo,
		txManager:       txManager,
		batchSize:       batchSize,
		retry:           retry,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// CompleteOne завершает одно бронирование по запросу admin.
// Повторный вызов для уже завершённого бронирования возвращает его без изменений.
func (uc *UseCase) CompleteOne(ctx context.Context, actor domain.ActorContext, id int64) (*Response, error) {
	uc.logger.Info("CompleteReservation: user=%d, reservation=%d", actor.UserID(), id)

	if id <= 0 {
		return nil, fmt.Errorf("%w: reservationID must be positive", ErrInvalidInput)
	}
	if !actor.IsAdmin() {
		uc.logger.Warn("CompleteReservation: user=%d is not admin", actor.UserID())
		return nil, ErrAccessDenied
	}

	var (
		result  *domain.Reservation
		changed bool
	)
	err := txmanager.Retry(ctx, uc.retry,
		func(attempt int, err error) {
			uc.metrics.RecordRetry(retryOperation)
			uc.logger.Warn("CompleteReservation: attempt %d for reservation=%d contended, retrying: %v", attempt, id, err)
		},
		func(ctx context.Context) error {
			result, changed = nil, false
			return uc.txManager.Do(ctx, actor.TenantID(), func(txCtx context.Context) error {
				var err error
				result, changed, err = uc.complete(txCtx, actor.TenantID(), id)
				return err
			})
		},
	)

	if err != nil {
		switch {
		case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrNotDue):
			uc.logger.Warn("CompleteReservation: reservation=%d: %v", id, err)
			return nil, err
		case errors.Is(err, pgerr.ErrContended):
			uc.logger.Warn("CompleteReservation: reservation=%d still contended after %d attempts", id, uc.retry.MaxAttempts)
			return nil, fmt.Errorf("%w: %v", ErrContended, err)
		case errors.Is(err, ErrInternal):
			uc.logger.Error("CompleteReservation: reservation=%d: %v", id, err)
			return nil, err
		default:
			uc.logger.Error("CompleteReservation: reservation=%d: %v", id, err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	if changed {
		uc.metrics.RecordCompleted(TriggerManual, 1)
	}

	resp := &Response{
		ID:       result.ID,
		SlotID:   result.SlotID,
		RenterID: result.RenterID,
		Status:   string(result.Status),
	}
	if result.CompletedAt != nil {
		resp.CompletedAt = result.CompletedAt.UTC().Format(domain.TimeFormat)
	}
	return resp, nil
}

// complete выполняется внутри транзакции
func (uc *UseCase) complete(ctx context.Context, tenantID, id int64) (*domain.Reservation, bool, error) {
	res, err := uc.reservationRepo.GetByIDForUpdate(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, false, ErrReservationNotFound
		}
		return nil, false, internal("lock reservation", err)
	}

	if res.Status == domain.StatusCompleted {
		return res, false, nil
	}

	now := uc.timeProvider.Now().UTC()
	if !res.IsDue(now) {
		return nil, false, fmt.Errorf("%w: status=%s, end=%s", ErrNotDue, res.Status, res.Window.End.Format(domain.TimeFormat))
	}

	if err := uc.reservationRepo.Complete(ctx, tenantID, id, now); err != nil {
		if errors.Is(err, reservationRepo.ErrInvalidTransition) {
			return nil, false, ErrNotDue
		}
		return nil, false, internal("complete", err)
	}

	res.Status = domain.StatusCompleted
	res.CompletedAt = &now
	return res, true, nil
}

// CompleteDue завершает все закончившиеся бронирования во всех активных tenant.
// Каждый tenant обрабатывается в своей транзакции, ошибка одного не останавливает остальные.
func (uc *UseCase) CompleteDue(ctx context.Context) (int64, error) {
	tenantIDs, err := uc.tenantRepo.ListActiveIDs(ctx)
	if err != nil {
		uc.logger.Error("CompleteDue: failed to list tenants: %v", err)
		return 0, fmt.Errorf("%w: list tenants: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now().UTC()

	var (
		total int64
		errs  []error
	)
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		var n int64
		err := uc.txManager.Do(ctx, tenantID, func(txCtx context.Context) error {
			var err error
			n, err = uc.reservationRepo.CompleteDue(txCtx, tenantID, now, uc.batchSize)
			return err
		})
		if err != nil {
			uc.logger.Error("CompleteDue: tenant=%d: %v", tenantID, err)
			errs = append(errs, fmt.Errorf("tenant %d: %w", tenantID, err))
			continue
		}

		if n > 0 {
			uc.logger.Info("CompleteDue: tenant=%d, completed=%d", tenantID, n)
			uc.metrics.RecordCompleted(TriggerSweeper, int(n))
		}
		total += n
	}

	if len(errs) > 0 {
		return total, fmt.Errorf("%w: %w", ErrInternal, errors.Join(errs...))
	}
	return total, nil
}

// internal оборачивает ошибку в ErrInternal, сохраняя признак конфликта блокировок для retry
func internal(op string, err error) error {
	if errors.Is(err, pgerr.ErrContended) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
