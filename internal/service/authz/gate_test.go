package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

const tenantID int64 = 1

func actor(t *testing.T, userID int64, role domain.Role) domain.ActorContext {
	t.Helper()
	a, err := domain.NewActorContext(userID, tenantID, "oak", role)
	require.NoError(t, err)
	return a
}

func slot(owner *int64, status domain.SlotStatus) *domain.Slot {
	return &domain.Slot{ID: 10, TenantID: tenantID, Label: "A-1", OwnerID: owner, Status: status}
}

func TestCanReserve(t *testing.T) {
	owner := ptr.Ptr(int64(100))

	tests := []struct {
		name  string
		actor domain.ActorContext
		slot  *domain.Slot
		want  Decision
	}{
		{
			name:  "owner reserves own slot",
			actor: actor(t, 100, domain.RoleResident),
			slot:  slot(owner, domain.SlotStatusActive),
			want:  Decision{Allowed: true},
		},
		{
			name:  "other resident is denied on owned slot",
			actor: actor(t, 200, domain.RoleResident),
			slot:  slot(owner, domain.SlotStatusActive),
			want:  Decision{Reason: ReasonSlotReservedByAnotherResident},
		},
		{
			name:  "any resident reserves shared slot",
			actor: actor(t, 200, domain.RoleResident),
			slot:  slot(nil, domain.SlotStatusActive),
			want:  Decision{Allowed: true},
		},
		{
			name:  "admin reserves owned slot",
			actor: actor(t, 300, domain.RoleAdmin),
			slot:  slot(owner, domain.SlotStatusActive),
			want:  Decision{Allowed: true},
		},
		{
			name:  "maintenance slot is unavailable to owner",
			actor: actor(t, 100, domain.RoleResident),
			slot:  slot(owner, domain.SlotStatusMaintenance),
			want:  Decision{Reason: ReasonSlotUnavailable},
		},
		{
			name:  "disabled slot is unavailable to admin",
			actor: actor(t, 300, domain.RoleAdmin),
			slot:  slot(nil, domain.SlotStatusDisabled),
			want:  Decision{Reason: ReasonSlotUnavailable},
		},
		{
			name:  "slot of another tenant",
			actor: actor(t, 300, domain.RoleAdmin),
			slot:  &domain.Slot{ID: 10, TenantID: 2, Status: domain.SlotStatusActive},
			want:  Decision{Reason: ReasonSlotUnavailable},
		},
		{
			name:  "zero actor",
			actor: domain.ActorContext{},
			slot:  slot(nil, domain.SlotStatusActive),
			want:  Decision{Reason: ReasonSlotUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReserve(tt.actor, tt.slot))
		})
	}
}

func TestCanManageSlot(t *testing.T) {
	owned := slot(ptr.Ptr(int64(100)), domain.SlotStatusActive)

	assert.True(t, CanManageSlot(actor(t, 100, domain.RoleResident), owned).Allowed)
	assert.True(t, CanManageSlot(actor(t, 300, domain.RoleAdmin), owned).Allowed)
	assert.Equal(t, ReasonNotSlotManager, CanManageSlot(actor(t, 200, domain.RoleResident), owned).Reason)
	assert.False(t, CanManageSlot(actor(t, 200, domain.RoleResident), slot(nil, domain.SlotStatusActive)).Allowed)
}

func TestCanCancelAndView(t *testing.T) {
	owned := slot(ptr.Ptr(int64(100)), domain.SlotStatusActive)
	res := &domain.Reservation{ID: 5, TenantID: tenantID, SlotID: owned.ID, RenterID: 200}

	tests := []struct {
		name  string
		actor domain.ActorContext
		want  bool
	}{
		{name: "renter", actor: actor(t, 200, domain.RoleResident), want: true},
		{name: "slot owner", actor: actor(t, 100, domain.RoleResident), want: true},
		{name: "admin", actor: actor(t, 300, domain.RoleAdmin), want: true},
		{name: "stranger", actor: actor(t, 400, domain.RoleResident), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.actor, res, owned))
			d := CanCancel(tt.actor, res, owned)
			assert.Equal(t, tt.want, d.Allowed)
			if !tt.want {
				assert.Equal(t, ReasonNotReservationParty, d.Reason)
			}
		})
	}

	t.Run("other tenant admin", func(t *testing.T) {
		other, err := domain.NewActorContext(300, 2, "elm", domain.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, CanView(other, res, owned))
	})
}
