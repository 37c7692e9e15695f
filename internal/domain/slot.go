package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotType is the physical kind of parking space
type SlotType string

const (
	SlotTypeCovered   SlotType = "covered"
	SlotTypeUncovered SlotType = "uncovered"
	SlotTypeTandem    SlotType = "tandem"
)

// IsValid returns true for known slot types
func (t SlotType) IsValid() bool {
	switch t {
	case SlotTypeCovered, SlotTypeUncovered, SlotTypeTandem:
		return true
	}
	return false
}

// SlotStatus is the lifecycle status of a slot
type SlotStatus string

const (
	SlotStatusActive      SlotStatus = "active"
	SlotStatusMaintenance SlotStatus = "maintenance"
	SlotStatusDisabled    SlotStatus = "disabled"
)

// IsValid returns true for known slot statuses
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotStatusActive, SlotStatusMaintenance, SlotStatusDisabled:
		return true
	}
	return false
}

// Slot represents a bookable parking space.
// OwnerID == nil means the slot is shared with every tenant member.
// Rate is an hourly rate; an invalid (null) rate means the slot is quote-required.
type Slot struct {
	ID        int64
	TenantID  int64
	Label     string
	Type      SlotType
	OwnerID   *int64
	Rate      decimal.NullDecimal
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the slot can be reserved at all
func (s *Slot) IsActive() bool {
	return s.Status == SlotStatusActive
}

// IsShared returns true if the slot has no owner
func (s *Slot) IsShared() bool {
	return s.OwnerID == nil
}

// Owner returns the owner id and whether the slot has an owner
func (s *Slot) Owner() (int64, bool) {
	if s.OwnerID == nil {
		return 0, false
	}
	return *s.OwnerID, true
}

// IsOwnedBy returns true if the user owns the slot
func (s *Slot) IsOwnedBy(userID int64) bool {
	owner, ok := s.Owner()
	return ok && owner == userID
}

// HourlyRate returns the rate and whether the slot is priced
func (s *Slot) HourlyRate() (decimal.Decimal, bool) {
	if !s.Rate.Valid {
		return decimal.Zero, false
	}
	return s.Rate.Decimal, true
}

// IsQuoteRequired returns true if the slot has no fixed rate
func (s *Slot) IsQuoteRequired() bool {
	return !s.Rate.Valid
}

// OwnerContact is owner contact data surfaced for quote-required slots
type OwnerContact struct {
	UserID      int64
	DisplayName string
	Phone       *string
	Email       *string
}
