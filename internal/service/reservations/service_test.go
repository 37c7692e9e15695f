package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

const (
	tenantA int64 = 1
	tenantB int64 = 2

	ownerID    int64 = 10
	renterID   int64 = 11
	strangerID int64 = 12
	adminID    int64 = 13
)

type fixture struct {
	store *memory.Store
	svc   *Service
	slot  *domain.Slot
	res   *domain.Reservation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	slot := store.AddSlot(domain.Slot{TenantID: tenantA, Label: "A", OwnerID: ptr.Ptr(ownerID), Status: domain.SlotStatusActive})

	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	w, err := domain.NewWindow(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	res := store.AddReservation(domain.Reservation{
		TenantID:   tenantA,
		SlotID:     slot.ID,
		RenterID:   renterID,
		Window:     w,
		Status:     domain.StatusConfirmed,
		TotalPrice: decimal.NullDecimal{Decimal: decimal.RequireFromString("7.5"), Valid: true},
	})

	svc := NewService(store.Reservations(), store.Slots(), &memory.TxManager{}, 2, logger.Nop())
	return &fixture{store: store, svc: svc, slot: slot, res: res}
}

func actorOf(t *testing.T, userID, tenantID int64, role domain.Role) domain.ActorContext {
	t.Helper()
	a, err := domain.NewActorContext(userID, tenantID, "code", role)
	require.NoError(t, err)
	return a
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.ActorContext
		wantErr error
	}{
		{name: "renter", actor: actorOf(t, renterID, tenantA, domain.RoleResident)},
		{name: "slot owner", actor: actorOf(t, ownerID, tenantA, domain.RoleResident)},
		{name: "admin", actor: actorOf(t, adminID, tenantA, domain.RoleAdmin)},
		{name: "stranger", actor: actorOf(t, strangerID, tenantA, domain.RoleResident), wantErr: ErrReservationNotFound},
		{name: "admin of another tenant", actor: actorOf(t, adminID, tenantB, domain.RoleAdmin), wantErr: ErrReservationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Get(ctx, tt.actor, f.res.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.res.ID, resp.ID)
			assert.Equal(t, "7.50", *resp.TotalPrice)
			assert.Equal(t, "confirmed", resp.Status)
		})
	}
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddReservation(domain.Reservation{TenantID: tenantA, SlotID: f.slot.ID, RenterID: strangerID, Window: f.res.Window, Status: domain.StatusCancelled})

	resp, err := f.svc.ListMine(ctx, actorOf(t, renterID, tenantA, domain.RoleResident), &models.ListReservationsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, renterID, resp.Reservations[0].RenterID)

	resp, err = f.svc.ListMine(ctx, actorOf(t, renterID, tenantA, domain.RoleResident), &models.ListReservationsRequest{Status: ptr.Ptr("cancelled")})
	require.NoError(t, err)
	assert.Empty(t, resp.Reservations)

	_, err = f.svc.ListMine(ctx, actorOf(t, renterID, tenantA, domain.RoleResident), &models.ListReservationsRequest{Status: ptr.Ptr("rejected")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	from := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.ListMine(ctx, actorOf(t, renterID, tenantA, domain.RoleResident), &models.ListReservationsRequest{From: &from, To: &from})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListForSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.ListForSlot(ctx, actorOf(t, ownerID, tenantA, domain.RoleResident), f.slot.ID, &models.ListReservationsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Reservations, 1)

	_, err = f.svc.ListForSlot(ctx, actorOf(t, renterID, tenantA, domain.RoleResident), f.slot.ID, &models.ListReservationsRequest{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.ListForSlot(ctx, actorOf(t, adminID, tenantB, domain.RoleAdmin), f.slot.ID, &models.ListReservationsRequest{})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}
