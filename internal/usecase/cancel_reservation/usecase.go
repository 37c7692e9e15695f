package cancel_reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/service/authz"
	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

const retryOperation = "cancel_reservation"

// UseCase use case для отмены бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	slotRepo        SlotRepository
	txManager       TransactionManager
	gracePeriod     time.Duration
	retry           txmanager.RetryPolicy
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	slotRepo SlotRepository,
	txManager TransactionManager,
	gracePeriod time.Duration,
	retry txmanager.RetryPolicy,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		txManager:       txManager,
		gracePeriod:     gracePeriod,
		retry:           retry,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute отменяет pending или confirmed бронирование.
// Отменить могут арендатор, владелец слота и admin. Арендатор - только
// пока до начала остаётся больше grace period; владелец и admin ограничены лишь статусом.
func (uc *UseCase) Execute(ctx context.Context, actor domain.ActorContext, req *Request) (*Response, error) {
	uc.logger.Info("CancelReservation: user=%d, reservation=%d", actor.UserID(), req.ReservationID)

	reason, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CancelReservation: validation failed: %v", err)
		return nil, err
	}

	var result *Response
	err = txmanager.Retry(ctx, uc.retry,
		func(attempt int, err error) {
			uc.metrics.RecordRetry(retryOperation)
			uc.logger.Warn("CancelReservation: attempt %d for reservation=%d contended: %v", attempt, req.ReservationID, err)
		},
		func(ctx context.Context) error {
			return uc.txManager.Do(ctx, actor.TenantID(), func(txCtx context.Context) error {
				var err error
				result, err = uc.cancel(txCtx, actor, req.ReservationID, reason)
				return err
			})
		},
	)

	if err != nil {
		switch {
		case errors.Is(err, pgerr.ErrContended):
			uc.logger.Warn("CancelReservation: reservation=%d still contended", req.ReservationID)
			return nil, fmt.Errorf("%w: %v", ErrContended, err)
		case errors.Is(err, ErrInternal):
			uc.logger.Error("CancelReservation: reservation=%d: %v", req.ReservationID, err)
			return nil, err
		case errors.Is(err, ErrReservationNotFound),
			errors.Is(err, ErrAccessDenied),
			errors.Is(err, ErrCannotCancel),
			errors.Is(err, ErrGracePeriodPassed):
			uc.logger.Warn("CancelReservation: reservation=%d rejected for user=%d: %v", req.ReservationID, actor.UserID(), err)
			return nil, err
		default:
			uc.logger.Error("CancelReservation: reservation=%d: %v", req.ReservationID, err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	uc.logger.Info("CancelReservation: reservation=%d cancelled by user=%d", req.ReservationID, actor.UserID())
	return result, nil
}

func (uc *UseCase) cancel(ctx context.Context, actor domain.ActorContext, id int64, reason *string) (*Response, error) {
	tenantID := actor.TenantID()

	res, err := uc.reservationRepo.GetByIDForUpdate(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, internal("lock reservation", err)
	}

	slot, err := uc.slotRepo.GetByID(ctx, tenantID, res.SlotID)
	if err != nil && !errors.Is(err, slotRepo.ErrSlotNotFound) {
		return nil, internal("load slot", err)
	}

	if d := authz.CanCancel(actor, res, slot); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
	}

	if !res.CanBeCancelled() {
		return nil, fmt.Errorf("%w: status is %s", ErrCannotCancel, res.Status)
	}

	now := uc.timeProvider.Now().UTC()
	ownerOrAdmin := actor.IsAdmin() || (slot != nil && slot.IsOwnedBy(actor.UserID()))
	if !ownerOrAdmin {
		deadline := res.Window.Start.Add(-uc.gracePeriod)
		if !now.Before(deadline) {
			return nil, fmt.Errorf("%w: deadline was %s", ErrGracePeriodPassed, deadline.Format(domain.TimeFormat))
		}
	}

	if err := uc.reservationRepo.Cancel(ctx, tenantID, res.ID, actor.UserID(), reason, now); err != nil {
		if errors.Is(err, reservationRepo.ErrInvalidTransition) {
			return nil, ErrCannotCancel
		}
		return nil, internal("cancel", err)
	}

	return &Response{
		ID:                 res.ID,
		SlotID:             res.SlotID,
		RenterID:           res.RenterID,
		Start:              res.Window.Start,
		End:                res.Window.End,
		Status:             string(domain.StatusCancelled),
		CancelledBy:        actor.UserID(),
		CancellationReason: reason,
		CancelledAt:        now,
	}, nil
}

// validateRequest валидирует запрос и нормализует причину отмены
func validateRequest(req *Request) (*string, error) {
	if req.ReservationID <= 0 {
		return nil, fmt.Errorf("%w: reservationID must be positive", ErrInvalidInput)
	}

	if req.Reason == nil {
		return nil, nil
	}

	reason := strings.TrimSpace(*req.Reason)
	if reason == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason is longer than %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	return &reason, nil
}

func internal(op string, err error) error {
	if errors.Is(err, pgerr.ErrContended) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
