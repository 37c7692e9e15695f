package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

func TestSlot_OwnershipAndRate(t *testing.T) {
	shared := Slot{Status: SlotStatusActive}
	assert.True(t, shared.IsShared())
	assert.False(t, shared.IsOwnedBy(3))
	assert.True(t, shared.IsQuoteRequired())
	_, priced := shared.HourlyRate()
	assert.False(t, priced)

	owned := Slot{
		OwnerID: ptr.Ptr(int64(3)),
		Rate:    decimal.NewNullDecimal(decimal.RequireFromString("50")),
		Status:  SlotStatusMaintenance,
	}
	assert.False(t, owned.IsShared())
	assert.True(t, owned.IsOwnedBy(3))
	assert.False(t, owned.IsOwnedBy(4))
	assert.False(t, owned.IsActive())

	rate, priced := owned.HourlyRate()
	assert.True(t, priced)
	assert.True(t, rate.Equal(decimal.NewFromInt(50)))
}

func TestUser_BelongsTo(t *testing.T) {
	u := User{TenantID: ptr.Ptr(int64(1)), IsActive: true}
	assert.True(t, u.BelongsTo(1))
	assert.False(t, u.BelongsTo(2))

	u.IsActive = false
	assert.False(t, u.BelongsTo(1))

	assert.False(t, (&User{IsActive: true}).BelongsTo(1))
}

func TestReservation_IsDue(t *testing.T) {
	r := Reservation{Status: StatusConfirmed, Window: Window{Start: at(9), End: at(13)}}

	assert.False(t, r.IsDue(at(12)))
	assert.True(t, r.IsDue(at(13)))

	r.Status = StatusPending
	assert.False(t, r.IsDue(at(14)))
}
