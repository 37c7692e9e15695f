package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/internal/service/authz"
	"github.com/m04kA/SMC-ParkingService/internal/service/pricing"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

// MaxBusyRange максимальный период запроса занятости слота
const MaxBusyRange = 92 * 24 * time.Hour

// Service реестр слотов tenant
type Service struct {
	slotRepo        SlotRepository
	userRepo        UserRepository
	reservationRepo ReservationRepository
	txManager       TransactionManager
	cache           SlotCache
	calc            PriceCalculator
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slotRepo SlotRepository,
	userRepo UserRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	cache SlotCache,
	calc PriceCalculator,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:        slotRepo,
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		cache:           cache,
		calc:            calc,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// GetSlot получает слот по ID. Слот другого tenant неотличим от отсутствующего.
func (s *Service) GetSlot(ctx context.Context, actor domain.ActorContext, slotID int64) (*models.SlotResponse, error) {
	slot, err := s.loadSlot(ctx, actor, slotID, "GetSlot")
	if err != nil {
		return nil, err
	}
	return models.FromDomainSlot(slot, s.minorUnits()), nil
}

// ListActiveSlots возвращает активные слоты tenant участника, по возрастанию метки
func (s *Service) ListActiveSlots(ctx context.Context, actor domain.ActorContext) (*models.SlotListResponse, error) {
	tenantID := actor.TenantID()

	if cached, ok := s.cache.Get(ctx, tenantID); ok {
		return models.FromDomainSlotList(cached, s.minorUnits()), nil
	}

	var slots []*domain.Slot
	err := s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		var err error
		slots, err = s.slotRepo.ListActive(txCtx, tenantID)
		return err
	})
	if err != nil {
		s.logger.Error("ListActiveSlots: repository error for tenant=%d: %v", tenantID, err)
		return nil, fmt.Errorf("%w: ListActiveSlots - repository error: %v", ErrInternal, err)
	}

	s.cache.Set(ctx, tenantID, slots)

	s.logger.Info("ListActiveSlots: fetched %d slots for tenant=%d", len(slots), tenantID)
	return models.FromDomainSlotList(slots, s.minorUnits()), nil
}

// CreateSlot создает слот в tenant участника.
// Resident создает только собственные слоты; admin - общие или для любого участника.
func (s *Service) CreateSlot(ctx context.Context, actor domain.ActorContext, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	tenantID := actor.TenantID()
	s.logger.Info("CreateSlot: user=%d, tenant=%d, label=%q", actor.UserID(), tenantID, req.Label)

	slot, err := s.buildSlot(actor, req)
	if err != nil {
		s.logger.Warn("CreateSlot: validation failed: %v", err)
		return nil, err
	}

	err = s.txManager.Do(ctx, tenantID, func(txCtx context.Context) error {
		if owner, ok := slot.Owner(); ok {
			if _, err := s.userRepo.GetMember(txCtx, tenantID, owner); err != nil {
				if errors.Is(err, userRepo.ErrUserNotFound) {
					return ErrInvalidOwner
				}
				return fmt.Errorf("%w: CreateSlot - load owner: %v", ErrInternal, err)
			}
		}

		created, err := s.slotRepo.Create(txCtx, slot)
		if err != nil {
			switch {
			case errors.Is(err, slotRepo.ErrDuplicateLabel):
				return ErrDuplicateLabel
			case errors.Is(err, slotRepo.ErrOwnerNotInTenant):
				return ErrInvalidOwner
			}
			return fmt.Errorf("%w: CreateSlot - repository error: %v", ErrInternal, err)
		}
		slot = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("CreateSlot: tenant=%d label=%q: %v", tenantID, req.Label, err)
		} else {
			s.logger.Warn("CreateSlot: tenant=%d label=%q rejected: %v", tenantID, req.Label, err)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, tenantID)

	s.logger.Info("CreateSlot: created slot id=%d in tenant=%d", slot.ID, tenantID)
	return models.FromDomainSlot(slot, s.minorUnits()), nil
}

// UpdateSlotStatus меняет статус слота. Доступно владельцу слота и admin.
// Существующие бронирования не затрагиваются; новые на неактивный слот запрещены.
func (s *Service) UpdateSlotStatus(ctx context.Context, actor domain.ActorContext, slotID int64, req *models.UpdateSlotStatusRequest) (*models.SlotResponse, error) {
	tenantID := actor.TenantID()
	s.logger.Info("UpdateSlotStatus: user=%d, slot=%d, status=%s", actor.UserID(), slotID, req.Status)

	status, ok := models.ToDomainSlotStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown slot status %q", ErrInvalidInput, req.Status)
	}

	var slot *domain.Slot
	err := s.txManager.Do(ctx, tenantID, func(txCtx context.Context) error {
		var err error
		slot, err = s.slotRepo.GetByIDForUpdate(txCtx, tenantID, slotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: UpdateSlotStatus - load slot: %v", ErrInternal, err)
		}

		if d := authz.CanManageSlot(actor, slot); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
		}

		now := s.timeProvider.Now().UTC()
		if err := s.slotRepo.UpdateStatus(txCtx, tenantID, slotID, status, now); err != nil {
			return fmt.Errorf("%w: UpdateSlotStatus - repository error: %v", ErrInternal, err)
		}

		slot.Status = status
		slot.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("UpdateSlotStatus: slot=%d: %v", slotID, err)
		} else {
			s.logger.Warn("UpdateSlotStatus: slot=%d rejected: %v", slotID, err)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, tenantID)

	s.logger.Info("UpdateSlotStatus: slot=%d is now %s", slotID, status)
	return models.FromDomainSlot(slot, s.minorUnits()), nil
}

// GetOwnerContact возвращает контакт владельца слота для согласования цены
func (s *Service) GetOwnerContact(ctx context.Context, actor domain.ActorContext, slotID int64) (*models.OwnerContactResponse, error) {
	tenantID := actor.TenantID()

	var owner *domain.User
	err := s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		slot, err := s.slotRepo.GetByID(txCtx, tenantID, slotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: GetOwnerContact - load slot: %v", ErrInternal, err)
		}

		ownerID, ok := slot.Owner()
		if !ok {
			return ErrNoOwner
		}

		owner, err = s.userRepo.GetMember(txCtx, tenantID, ownerID)
		if err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				return ErrNoOwner
			}
			return fmt.Errorf("%w: GetOwnerContact - load owner: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logOutcome("GetOwnerContact", slotID, err)
		return nil, err
	}

	return models.FromDomainUser(owner), nil
}

// ListBusyWindows возвращает занятые интервалы слота, пересекающиеся с [from, to)
func (s *Service) ListBusyWindows(ctx context.Context, actor domain.ActorContext, slotID int64, from, to time.Time) (*models.BusyWindowsResponse, error) {
	tenantID := actor.TenantID()

	window, err := domain.NewWindow(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if window.Duration() > MaxBusyRange {
		return nil, fmt.Errorf("%w: period is longer than %s", ErrInvalidInput, MaxBusyRange)
	}

	var reservations []*domain.Reservation
	err = s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		if _, err := s.slotRepo.GetByID(txCtx, tenantID, slotID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: ListBusyWindows - load slot: %v", ErrInternal, err)
		}

		var err error
		reservations, err = s.reservationRepo.ListBlocking(txCtx, tenantID, slotID, window)
		if err != nil {
			return fmt.Errorf("%w: ListBusyWindows - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logOutcome("ListBusyWindows", slotID, err)
		return nil, err
	}

	return models.FromDomainReservations(slotID, window.Start, window.End, reservations), nil
}

// Quote рассчитывает стоимость интервала без создания бронирования.
// Итоговая цена всё равно вычисляется заново при бронировании.
func (s *Service) Quote(ctx context.Context, actor domain.ActorContext, slotID int64, start, end time.Time) (*models.QuoteResponse, error) {
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	slot, err := s.loadSlot(ctx, actor, slotID, "Quote")
	if err != nil {
		return nil, err
	}

	if d := authz.CanReserve(actor, slot); !d.Allowed {
		s.logger.Warn("Quote: user=%d denied on slot=%d: %s", actor.UserID(), slotID, d.Reason)
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
	}

	resp := &models.QuoteResponse{
		SlotID:          slot.ID,
		Start:           window.Start,
		End:             window.End,
		DurationMinutes: int64(window.Duration() / time.Minute),
	}

	price, err := s.calc.ComputePrice(slot, window)
	switch {
	case err == nil:
		rate, _ := slot.HourlyRate()
		resp.HourlyRate = ptr.Ptr(s.calc.Format(rate))
		resp.TotalPrice = ptr.Ptr(s.calc.Format(price))
	case errors.Is(err, pricing.ErrQuoteRequired):
		resp.QuoteRequired = true
		contact, err := s.GetOwnerContact(ctx, actor, slotID)
		if err != nil && !errors.Is(err, ErrNoOwner) {
			return nil, err
		}
		resp.OwnerContact = contact
	default:
		return nil, fmt.Errorf("%w: Quote - compute price: %v", ErrInternal, err)
	}

	return resp, nil
}

func (s *Service) loadSlot(ctx context.Context, actor domain.ActorContext, slotID int64, op string) (*domain.Slot, error) {
	tenantID := actor.TenantID()

	var slot *domain.Slot
	err := s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		var err error
		slot, err = s.slotRepo.GetByID(txCtx, tenantID, slotID)
		return err
	})
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("%s: slot id=%d not found in tenant=%d", op, slotID, tenantID)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("%s: repository error for slot id=%d: %v", op, slotID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	return slot, nil
}

// buildSlot валидирует запрос и собирает доменный слот
func (s *Service) buildSlot(actor domain.ActorContext, req *models.CreateSlotRequest) (*domain.Slot, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" || utf8.RuneCountInString(label) > domain.MaxLabelLength {
		return nil, fmt.Errorf("%w: label must be 1..%d characters", ErrInvalidInput, domain.MaxLabelLength)
	}

	slotType, ok := models.ToDomainSlotType(req.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown slot type %q", ErrInvalidInput, req.Type)
	}

	slot := &domain.Slot{
		TenantID: actor.TenantID(),
		Label:    label,
		Type:     slotType,
		OwnerID:  req.OwnerID,
		Status:   domain.SlotStatusActive,
	}

	if !actor.IsAdmin() {
		if req.OwnerID != nil && *req.OwnerID != actor.UserID() {
			return nil, fmt.Errorf("%w: residents can only create their own slots", ErrAccessDenied)
		}
		ownerID := actor.UserID()
		slot.OwnerID = &ownerID
	}

	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(strings.TrimSpace(*req.HourlyRate))
		if err != nil {
			return nil, fmt.Errorf("%w: hourly rate is not a decimal", ErrInvalidInput)
		}
		if err := s.calc.ValidateRate(rate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		slot.Rate = decimal.NullDecimal{Decimal: rate, Valid: true}
	}

	return slot, nil
}

func (s *Service) logOutcome(op string, slotID int64, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: slot=%d: %v", op, slotID, err)
		return
	}
	s.logger.Warn("%s: slot=%d: %v", op, slotID, err)
}

func (s *Service) minorUnits() int32 {
	return int32(s.calc.MinorUnits())
}
