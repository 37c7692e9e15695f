package domain

import "time"

// Tenant represents a housing community. All slots, users and reservations
// belong to exactly one tenant.
type Tenant struct {
	ID        int64
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Role is the role of a user inside their tenant
type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return r == RoleResident || r == RoleAdmin
}

// User represents a member of a tenant.
// Users are never hard-deleted, IsActive=false disables them.
type User struct {
	ID          int64
	TenantID    *int64 // nil только для некорректно заведённых записей
	Role        Role
	DisplayName string
	Phone       *string
	Email       *string
	Unit        *string // номер квартиры/помещения
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BelongsTo returns true if the user is an active member of the tenant
func (u *User) BelongsTo(tenantID int64) bool {
	return u.IsActive && u.TenantID != nil && *u.TenantID == tenantID
}
