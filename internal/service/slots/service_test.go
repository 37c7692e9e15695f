package slots

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ParkingService/internal/service/pricing"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

const (
	tenantA int64 = 1
	tenantB int64 = 2

	ownerID    int64 = 10
	residentID int64 = 11
	adminID    int64 = 12
	outsiderID int64 = 20
)

type countingCache struct {
	data        map[int64][]*domain.Slot
	hits        int
	invalidated int
}

func (c *countingCache) Get(_ context.Context, tenantID int64) ([]*domain.Slot, bool) {
	slots, ok := c.data[tenantID]
	if ok {
		c.hits++
	}
	return slots, ok
}

func (c *countingCache) Set(_ context.Context, tenantID int64, slots []*domain.Slot) {
	c.data[tenantID] = slots
}

func (c *countingCache) Invalidate(_ context.Context, tenantID int64) {
	c.invalidated++
	delete(c.data, tenantID)
}

type fixture struct {
	store *memory.Store
	cache *countingCache
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddTenant(domain.Tenant{ID: tenantA, Code: "oak", IsActive: true})
	store.AddTenant(domain.Tenant{ID: tenantB, Code: "elm", IsActive: true})
	for _, u := range []domain.User{
		{ID: ownerID, TenantID: ptr.Ptr(tenantA), Role: domain.RoleResident, DisplayName: "Owner", Phone: ptr.Ptr("+100"), IsActive: true},
		{ID: residentID, TenantID: ptr.Ptr(tenantA), Role: domain.RoleResident, DisplayName: "Resident", IsActive: true},
		{ID: adminID, TenantID: ptr.Ptr(tenantA), Role: domain.RoleAdmin, DisplayName: "Admin", IsActive: true},
		{ID: outsiderID, TenantID: ptr.Ptr(tenantB), Role: domain.RoleResident, DisplayName: "Outsider", IsActive: true},
	} {
		store.AddUser(u)
	}

	cache := &countingCache{data: make(map[int64][]*domain.Slot)}
	svc := NewService(
		store.Slots(), store.Users(), store.Reservations(), &memory.TxManager{},
		cache, pricing.NewCalculator(2), logger.Nop(),
	)
	return &fixture{store: store, cache: cache, svc: svc}
}

func actorOf(t *testing.T, userID, tenantID int64, role domain.Role) domain.ActorContext {
	t.Helper()
	a, err := domain.NewActorContext(userID, tenantID, "code", role)
	require.NoError(t, err)
	return a
}

func rate(v string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(v), Valid: true}
}

func TestListActiveSlots_OrderingAndCache(t *testing.T) {
	f := newFixture(t)
	f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "B-2", Status: domain.SlotStatusActive})
	f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "A-1", Status: domain.SlotStatusActive, Rate: rate("5")})
	f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "A-0", Status: domain.SlotStatusMaintenance})
	f.store.AddSlot(domain.Slot{TenantID: tenantB, Label: "A-0", Status: domain.SlotStatusActive})

	actor := actorOf(t, residentID, tenantA, domain.RoleResident)

	resp, err := f.svc.ListActiveSlots(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "A-1", resp.Slots[0].Label)
	assert.Equal(t, "5.00", *resp.Slots[0].HourlyRate)
	assert.Equal(t, "B-2", resp.Slots[1].Label)
	assert.True(t, resp.Slots[1].QuoteRequired)

	_, err = f.svc.ListActiveSlots(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
}

func TestGetSlot_CrossTenantIsNotFound(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddSlot(domain.Slot{TenantID: tenantB, Label: "X", Status: domain.SlotStatusActive})

	_, err := f.svc.GetSlot(context.Background(), actorOf(t, adminID, tenantA, domain.RoleAdmin), other.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	got, err := f.svc.GetSlot(context.Background(), actorOf(t, outsiderID, tenantB, domain.RoleResident), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestCreateSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("resident owns created slot", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.CreateSlot(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), &models.CreateSlotRequest{
			Label: " P-7 ", Type: "covered", HourlyRate: ptr.Ptr("12.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, "P-7", resp.Label)
		assert.Equal(t, residentID, *resp.OwnerID)
		assert.Equal(t, "12.50", *resp.HourlyRate)
		assert.Equal(t, 1, f.cache.invalidated)
	})

	t.Run("resident cannot create slot for someone else", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateSlot(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), &models.CreateSlotRequest{
			Label: "P-8", Type: "covered", OwnerID: ptr.Ptr(ownerID),
		})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("admin creates shared slot", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.CreateSlot(ctx, actorOf(t, adminID, tenantA, domain.RoleAdmin), &models.CreateSlotRequest{
			Label: "S-1", Type: "uncovered",
		})
		require.NoError(t, err)
		assert.True(t, resp.Shared)
		assert.True(t, resp.QuoteRequired)
	})

	t.Run("admin cannot assign owner from another tenant", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateSlot(ctx, actorOf(t, adminID, tenantA, domain.RoleAdmin), &models.CreateSlotRequest{
			Label: "S-2", Type: "tandem", OwnerID: ptr.Ptr(outsiderID),
		})
		assert.ErrorIs(t, err, ErrInvalidOwner)
	})

	t.Run("duplicate label", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "D-1", Status: domain.SlotStatusActive})
		_, err := f.svc.CreateSlot(ctx, actorOf(t, adminID, tenantA, domain.RoleAdmin), &models.CreateSlotRequest{
			Label: "D-1", Type: "covered",
		})
		assert.ErrorIs(t, err, ErrDuplicateLabel)
	})

	t.Run("same label in another tenant is allowed", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddSlot(domain.Slot{TenantID: tenantB, Label: "D-1", Status: domain.SlotStatusActive})
		_, err := f.svc.CreateSlot(ctx, actorOf(t, adminID, tenantA, domain.RoleAdmin), &models.CreateSlotRequest{
			Label: "D-1", Type: "covered",
		})
		assert.NoError(t, err)
	})

	invalid := []*models.CreateSlotRequest{
		{Label: "", Type: "covered"},
		{Label: "A", Type: "rooftop"},
		{Label: "A", Type: "covered", HourlyRate: ptr.Ptr("abc")},
		{Label: "A", Type: "covered", HourlyRate: ptr.Ptr("0")},
		{Label: "A", Type: "covered", HourlyRate: ptr.Ptr("1.001")},
	}
	for _, req := range invalid {
		f := newFixture(t)
		_, err := f.svc.CreateSlot(ctx, actorOf(t, adminID, tenantA, domain.RoleAdmin), req)
		assert.ErrorIs(t, err, ErrInvalidInput, "label=%q type=%q", req.Label, req.Type)
	}
}

func TestUpdateSlotStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "A", OwnerID: ptr.Ptr(ownerID), Status: domain.SlotStatusActive})

	_, err := f.svc.UpdateSlotStatus(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), slot.ID,
		&models.UpdateSlotStatusRequest{Status: "maintenance"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.UpdateSlotStatus(ctx, actorOf(t, ownerID, tenantA, domain.RoleResident), slot.ID,
		&models.UpdateSlotStatusRequest{Status: "broken"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	resp, err := f.svc.UpdateSlotStatus(ctx, actorOf(t, ownerID, tenantA, domain.RoleResident), slot.ID,
		&models.UpdateSlotStatusRequest{Status: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, "maintenance", resp.Status)
	assert.Equal(t, 1, f.cache.invalidated)

	_, err = f.svc.UpdateSlotStatus(ctx, actorOf(t, outsiderID, tenantB, domain.RoleAdmin), slot.ID,
		&models.UpdateSlotStatusRequest{Status: "active"})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestListBusyWindows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "A", Status: domain.SlotStatusActive})
	day := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []domain.ReservationStatus{domain.StatusConfirmed, domain.StatusPending, domain.StatusCancelled} {
		w, err := domain.NewWindow(day.Add(time.Duration(i*2)*time.Hour), day.Add(time.Duration(i*2+1)*time.Hour))
		require.NoError(t, err)
		f.store.AddReservation(domain.Reservation{TenantID: tenantA, SlotID: slot.ID, RenterID: residentID, Window: w, Status: status})
	}

	resp, err := f.svc.ListBusyWindows(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), slot.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, resp.Busy, 2)
	assert.Equal(t, day, resp.Busy[0].Start)

	_, err = f.svc.ListBusyWindows(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), slot.ID, day, day)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListBusyWindows(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), slot.ID, day, day.Add(MaxBusyRange+time.Hour))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	priced := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "P", Status: domain.SlotStatusActive, Rate: rate("50")})
	unpriced := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "Q", OwnerID: ptr.Ptr(ownerID), Status: domain.SlotStatusActive})
	start := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)

	resp, err := f.svc.Quote(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), priced.ID, start, start.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, resp.QuoteRequired)
	assert.Equal(t, "200.00", *resp.TotalPrice)
	assert.Equal(t, int64(240), resp.DurationMinutes)

	// владелец видит контакт самого себя, остальным слот закрыт
	resp, err = f.svc.Quote(ctx, actorOf(t, ownerID, tenantA, domain.RoleResident), unpriced.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, resp.QuoteRequired)
	assert.Nil(t, resp.TotalPrice)
	require.NotNil(t, resp.OwnerContact)
	assert.Equal(t, "+100", *resp.OwnerContact.Phone)

	_, err = f.svc.Quote(ctx, actorOf(t, residentID, tenantA, domain.RoleResident), unpriced.ID, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetOwnerContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owned := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "O", OwnerID: ptr.Ptr(ownerID), Status: domain.SlotStatusActive})
	shared := f.store.AddSlot(domain.Slot{TenantID: tenantA, Label: "S", Status: domain.SlotStatusActive})
	actor := actorOf(t, residentID, tenantA, domain.RoleResident)

	contact, err := f.svc.GetOwnerContact(ctx, actor, owned.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner", contact.DisplayName)

	_, err = f.svc.GetOwnerContact(ctx, actor, shared.ID)
	assert.ErrorIs(t, err, ErrNoOwner)
}
