package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/service/authz"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations/models"
)

// Service чтение бронирований
type Service struct {
	reservationRepo ReservationRepository
	slotRepo        SlotRepository
	txManager       TransactionManager
	minorUnits      int32
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	slotRepo SlotRepository,
	txManager TransactionManager,
	minorUnits int,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		txManager:       txManager,
		minorUnits:      int32(minorUnits),
		logger:          logger,
	}
}

// Get получает бронирование по ID.
// Бронирование видят арендатор, владелец слота и admin; остальным оно неотличимо от отсутствующего.
func (s *Service) Get(ctx context.Context, actor domain.ActorContext, id int64) (*models.ReservationResponse, error) {
	tenantID := actor.TenantID()
	s.logger.Info("Get: fetching reservation id=%d for user=%d", id, actor.UserID())

	var res *domain.Reservation
	err := s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		var err error
		res, err = s.reservationRepo.GetByID(txCtx, tenantID, id)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
		}

		var slot *domain.Slot
		if !actor.IsAdmin() && res.RenterID != actor.UserID() {
			slot, err = s.slotRepo.GetByID(txCtx, tenantID, res.SlotID)
			if err != nil && !errors.Is(err, slotRepo.ErrSlotNotFound) {
				return fmt.Errorf("%w: Get - load slot: %v", ErrInternal, err)
			}
		}

		if !authz.CanView(actor, res, slot) {
			return ErrReservationNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("Get: reservation id=%d: %v", id, err)
		} else {
			s.logger.Warn("Get: reservation id=%d not visible to user=%d", id, actor.UserID())
		}
		return nil, err
	}

	return models.FromDomainReservation(res, s.minorUnits), nil
}

// ListMine получает бронирования участника с опциональным фильтром по статусу и периоду
func (s *Service) ListMine(ctx context.Context, actor domain.ActorContext, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListMine: invalid filter for user=%d: %v", actor.UserID(), err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	renterID := actor.UserID()
	filter.RenterID = &renterID

	return s.list(ctx, actor, filter, "ListMine")
}

// ListForSlot получает бронирования слота. Доступно владельцу слота и admin.
func (s *Service) ListForSlot(ctx context.Context, actor domain.ActorContext, slotID int64, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	tenantID := actor.TenantID()

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListForSlot: invalid filter for slot=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	filter.SlotID = &slotID

	err = s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		slot, err := s.slotRepo.GetByID(txCtx, tenantID, slotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: ListForSlot - load slot: %v", ErrInternal, err)
		}
		if d := authz.CanManageSlot(actor, slot); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("ListForSlot: slot=%d: %v", slotID, err)
		} else {
			s.logger.Warn("ListForSlot: slot=%d, user=%d: %v", slotID, actor.UserID(), err)
		}
		return nil, err
	}

	return s.list(ctx, actor, filter, "ListForSlot")
}

func (s *Service) list(ctx context.Context, actor domain.ActorContext, filter domain.ReservationsFilter, op string) (*models.ReservationListResponse, error) {
	tenantID := actor.TenantID()

	var reservations []*domain.Reservation
	err := s.txManager.DoReadOnly(ctx, tenantID, func(txCtx context.Context) error {
		var err error
		reservations, err = s.reservationRepo.List(txCtx, tenantID, filter)
		return err
	})
	if err != nil {
		s.logger.Error("%s: repository error for tenant=%d: %v", op, tenantID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.logger.Info("%s: fetched %d reservations for user=%d", op, len(reservations), actor.UserID())
	return models.FromDomainReservationList(reservations, s.minorUnits), nil
}
