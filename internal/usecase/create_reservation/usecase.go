package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/internal/service/authz"
	"github.com/m04kA/SMC-ParkingService/internal/service/pricing"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

const retryOperation = "create_reservation"

// UseCase use case для создания бронирования
type UseCase struct {
	slotRepo        SlotRepository
	reservationRepo ReservationRepository
	userRepo        UserRepository
	calc            PriceCalculator
	txManager       TransactionManager
	rules           Rules
	retry           txmanager.RetryPolicy
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	reservationRepo ReservationRepository,
	userRepo UserRepository,
	calc PriceCalculator,
	txManager TransactionManager,
	rules Rules,
	retry txmanager.RetryPolicy,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:        slotRepo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		calc:            calc,
		txManager:       txManager,
		rules:           rules,
		retry:           retry,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка пересечений и вставка выполняются в одной сериализуемой транзакции
// под блокировкой строки слота; exclusion constraint в БД страхует от пересечений
// на уровне хранилища. Конфликты блокировок повторяются по политике retry.
func (uc *UseCase) Execute(ctx context.Context, actor domain.ActorContext, req *Request) (*Response, error) {
	outcome := metrics.OutcomeError
	defer func() { uc.metrics.RecordReservationAttempt(outcome) }()

	if actor.IsZero() {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}

	uc.logger.Info("CreateReservation: user=%d, tenant=%d, slot=%d, start=%s, end=%s",
		actor.UserID(), actor.TenantID(), req.SlotID, req.Start.Format(domain.TimeFormat), req.End.Format(domain.TimeFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		outcome = metrics.OutcomeInvalid
		return nil, err
	}

	now := uc.timeProvider.Now().UTC()

	var (
		result  *domain.Reservation
		contact *domain.OwnerContact
	)

	// 2. Слот, права, интервал, проверка пересечений и вставка в одной транзакции.
	// Интервал проверяется после authz: чужой закреплённый слот отклоняется при любом интервале.
	err := txmanager.Retry(ctx, uc.retry,
		func(attempt int, err error) {
			uc.metrics.RecordRetry(retryOperation)
			uc.logger.Warn("CreateReservation: attempt %d for slot=%d contended, retrying: %v", attempt, req.SlotID, err)
		},
		func(ctx context.Context) error {
			contact = nil
			return uc.txManager.DoSerializable(ctx, actor.TenantID(), func(txCtx context.Context) error {
				var err error
				result, contact, err = uc.reserve(txCtx, actor, req, now)
				return err
			})
		},
	)

	if err != nil {
		var denied *DeniedError
		switch {
		case errors.As(err, &denied):
			uc.logger.Warn("CreateReservation: user=%d denied on slot=%d: %s", actor.UserID(), req.SlotID, denied.Reason)
			outcome = metrics.OutcomeDenied
			return nil, err
		case errors.Is(err, ErrSlotNotFound):
			uc.logger.Warn("CreateReservation: slot=%d not found in tenant=%d", req.SlotID, actor.TenantID())
			outcome = metrics.OutcomeDenied
			return nil, err
		case errors.Is(err, ErrInvalidWindow):
			uc.logger.Warn("CreateReservation: window rejected: %v", err)
			outcome = metrics.OutcomeInvalid
			return nil, err
		case errors.Is(err, ErrAlreadyBooked):
			uc.logger.Warn("CreateReservation: slot=%d already booked for %s - %s",
				req.SlotID, req.Start.Format(domain.TimeFormat), req.End.Format(domain.TimeFormat))
			outcome = metrics.OutcomeAlreadyBooked
			return nil, err
		case errors.Is(err, pgerr.ErrContended):
			uc.logger.Warn("CreateReservation: slot=%d still contended after %d attempts", req.SlotID, uc.retry.MaxAttempts)
			outcome = metrics.OutcomeContended
			return nil, fmt.Errorf("%w: %v", ErrContended, err)
		case errors.Is(err, ErrInternal):
			uc.logger.Error("CreateReservation: slot=%d: %v", req.SlotID, err)
			return nil, err
		default:
			uc.logger.Error("CreateReservation: slot=%d: %v", req.SlotID, err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	if result.QuoteRequired {
		outcome = metrics.OutcomeQuoteRequired
	} else {
		outcome = metrics.OutcomeConfirmed
	}

	uc.logger.Info("CreateReservation: created reservation id=%d, status=%s", result.ID, result.Status)
	return uc.toResponse(result, contact), nil
}

// reserve выполняется внутри транзакции
func (uc *UseCase) reserve(ctx context.Context, actor domain.ActorContext, req *Request, now time.Time) (*domain.Reservation, *domain.OwnerContact, error) {
	tenantID := actor.TenantID()

	// 2.1. Блокируем строку слота: конкурентные попытки на один слот выстраиваются в очередь
	slot, err := uc.slotRepo.GetByIDForUpdate(ctx, tenantID, req.SlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, nil, ErrSlotNotFound
		}
		return nil, nil, internal("lock slot", err)
	}

	// 2.2. Права проверяются по заблокированной строке
	if d := authz.CanReserve(actor, slot); !d.Allowed {
		return nil, nil, &DeniedError{Reason: d.Reason}
	}

	// 2.3. Интервал
	window, err := validateWindow(req.Start, req.End, now, uc.rules)
	if err != nil {
		return nil, nil, err
	}

	// 2.4. Пересечения с pending/confirmed
	conflict, err := uc.reservationRepo.HasConflict(ctx, tenantID, slot.ID, window, nil)
	if err != nil {
		return nil, nil, internal("check conflict", err)
	}
	if conflict {
		return nil, nil, ErrAlreadyBooked
	}

	// 2.5. Цена
	res := &domain.Reservation{
		TenantID: tenantID,
		SlotID:   slot.ID,
		RenterID: actor.UserID(),
		Window:   window,
	}

	var contact *domain.OwnerContact
	price, err := uc.calc.ComputePrice(slot, window)
	switch {
	case err == nil:
		res.Status = domain.StatusConfirmed
		res.TotalPrice = decimal.NullDecimal{Decimal: price, Valid: true}
	case errors.Is(err, pricing.ErrQuoteRequired):
		res.Status = domain.StatusPending
		res.QuoteRequired = true
		contact, err = uc.ownerContact(ctx, slot)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, internal("compute price", err)
	}

	// 2.6. Вставка; пересечение, пропущенное проверкой выше, отклонит exclusion constraint
	created, err := uc.reservationRepo.Create(ctx, res)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrOverlap) {
			return nil, nil, ErrAlreadyBooked
		}
		return nil, nil, internal("insert reservation", err)
	}

	return created, contact, nil
}

func (uc *UseCase) ownerContact(ctx context.Context, slot *domain.Slot) (*domain.OwnerContact, error) {
	ownerID, ok := slot.Owner()
	if !ok {
		return nil, nil
	}

	owner, err := uc.userRepo.GetMember(ctx, slot.TenantID, ownerID)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			uc.logger.Warn("CreateReservation: owner id=%d of slot=%d is not an active member", ownerID, slot.ID)
			return nil, nil
		}
		return nil, internal("load owner", err)
	}

	return &domain.OwnerContact{
		UserID:      owner.ID,
		DisplayName: owner.DisplayName,
		Phone:       owner.Phone,
		Email:       owner.Email,
	}, nil
}

func (uc *UseCase) toResponse(r *domain.Reservation, contact *domain.OwnerContact) *Response {
	resp := &Response{
		ID:            r.ID,
		SlotID:        r.SlotID,
		RenterID:      r.RenterID,
		Start:         r.Window.Start,
		End:           r.Window.End,
		Status:        string(r.Status),
		QuoteRequired: r.QuoteRequired,
		OwnerContact:  contact,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if price, ok := r.Price(); ok {
		formatted := uc.calc.Format(price)
		resp.TotalPrice = &formatted
	}

	return resp
}

// internal оборачивает ошибку в ErrInternal, сохраняя признак конфликта блокировок для retry
func internal(op string, err error) error {
	if errors.Is(err, pgerr.ErrContended) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
