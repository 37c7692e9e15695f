package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

func hour(h int) time.Time {
	return time.Date(2024, 1, 2, h, 0, 0, 0, time.UTC)
}

func win(t *testing.T, from, to int) domain.Window {
	t.Helper()
	w, err := domain.NewWindow(hour(from), hour(to))
	require.NoError(t, err)
	return w
}

func TestTxManager_RequiresTenant(t *testing.T) {
	tx := &TxManager{}
	err := tx.Do(context.Background(), 0, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, txmanager.ErrNoTenant)
}

func TestRowSecurity(t *testing.T) {
	s := NewStore()
	slot := s.AddSlot(domain.Slot{TenantID: 1, Label: "A", Status: domain.SlotStatusActive})
	repo := s.Slots()
	tx := &TxManager{}

	// вне транзакции
	_, err := repo.GetByID(context.Background(), 1, slot.ID)
	assert.ErrorIs(t, err, ErrRowSecurity)

	// транзакция другого tenant
	err = tx.Do(context.Background(), 2, func(ctx context.Context) error {
		_, err := repo.GetByID(ctx, 1, slot.ID)
		return err
	})
	assert.ErrorIs(t, err, ErrRowSecurity)

	// запрос своего tenant к чужой строке
	err = tx.Do(context.Background(), 2, func(ctx context.Context) error {
		_, err := repo.GetByID(ctx, 2, slot.ID)
		return err
	})
	assert.ErrorIs(t, err, slotRepo.ErrSlotNotFound)

	err = tx.Do(context.Background(), 1, func(ctx context.Context) error {
		got, err := repo.GetByID(ctx, 1, slot.ID)
		if err == nil {
			assert.Equal(t, "A", got.Label)
		}
		return err
	})
	assert.NoError(t, err)
}

func TestUserRowSecurity(t *testing.T) {
	s := NewStore()
	s.AddUser(domain.User{ID: 1, TenantID: ptr.Ptr(int64(1)), Role: domain.RoleResident, IsActive: true})
	s.AddUser(domain.User{ID: 2, TenantID: ptr.Ptr(int64(2)), Role: domain.RoleResident, IsActive: true})
	users := s.Users()
	tx := &TxManager{}

	_, err := users.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRowSecurity)

	// аутентификация видит только свою строку
	err = tx.DoAsUser(context.Background(), 1, func(ctx context.Context) error {
		u, err := users.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)

		_, err = users.GetByID(ctx, 2)
		return err
	})
	assert.ErrorIs(t, err, userRepo.ErrUserNotFound)

	// транзакция tenant не видит пользователей другого tenant
	err = tx.Do(context.Background(), 1, func(ctx context.Context) error {
		_, err := users.GetByID(ctx, 2)
		return err
	})
	assert.ErrorIs(t, err, userRepo.ErrUserNotFound)

	_, err = users.GetMember(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrRowSecurity)

	err = tx.DoAsUser(context.Background(), 0, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, txmanager.ErrNoUser)
}

func TestReservationCreate_Exclusion(t *testing.T) {
	s := NewStore()
	slot := s.AddSlot(domain.Slot{TenantID: 1, Label: "A", Status: domain.SlotStatusActive})
	repo := s.Reservations()
	tx := &TxManager{}

	create := func(from, to int, status domain.ReservationStatus) error {
		return tx.Do(context.Background(), 1, func(ctx context.Context) error {
			_, err := repo.Create(ctx, &domain.Reservation{
				TenantID: 1, SlotID: slot.ID, RenterID: 5, Window: win(t, from, to), Status: status,
			})
			return err
		})
	}

	require.NoError(t, create(9, 12, domain.StatusConfirmed))
	assert.ErrorIs(t, create(11, 13, domain.StatusConfirmed), reservationRepo.ErrOverlap)
	assert.NoError(t, create(12, 15, domain.StatusPending), "touching windows do not overlap")
	assert.ErrorIs(t, create(14, 16, domain.StatusConfirmed), reservationRepo.ErrOverlap, "pending blocks")
}

func TestReservationTransitions(t *testing.T) {
	s := NewStore()
	res := s.AddReservation(domain.Reservation{TenantID: 1, SlotID: 1, Window: win(t, 9, 10), Status: domain.StatusConfirmed})
	repo := s.Reservations()
	tx := &TxManager{}

	err := tx.Do(context.Background(), 1, func(ctx context.Context) error {
		return repo.Complete(ctx, 1, res.ID, hour(9))
	})
	assert.ErrorIs(t, err, reservationRepo.ErrInvalidTransition, "not yet ended")

	err = tx.Do(context.Background(), 1, func(ctx context.Context) error {
		return repo.Complete(ctx, 1, res.ID, hour(10))
	})
	require.NoError(t, err)

	err = tx.Do(context.Background(), 1, func(ctx context.Context) error {
		return repo.Cancel(ctx, 1, res.ID, 5, ptr.Ptr("late"), hour(11))
	})
	assert.ErrorIs(t, err, reservationRepo.ErrInvalidTransition, "completed is terminal")

	got, ok := s.Reservation(res.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestCompleteDue_Limit(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		s.AddReservation(domain.Reservation{TenantID: 1, SlotID: 1, Window: win(t, 8+i, 9+i), Status: domain.StatusConfirmed})
	}
	s.AddReservation(domain.Reservation{TenantID: 1, SlotID: 1, Window: win(t, 8, 9), Status: domain.StatusPending})
	repo := s.Reservations()
	tx := &TxManager{}

	var n int64
	err := tx.Do(context.Background(), 1, func(ctx context.Context) error {
		var err error
		n, err = repo.CompleteDue(ctx, 1, hour(20), 2)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, s.CountReservations(1, domain.StatusCompleted))
	assert.Equal(t, 1, s.CountReservations(1, domain.StatusPending))
}
