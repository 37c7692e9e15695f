package domain

import "errors"

// ErrIncompleteActor возвращается при попытке собрать ActorContext из неполных данных
var ErrIncompleteActor = errors.New("domain: incomplete actor context")

// ActorContext identifies who performs an operation and in which tenant.
// It is immutable and is passed explicitly into every service and usecase call;
// nothing derives the tenant from request parameters.
type ActorContext struct {
	userID     int64
	tenantID   int64
	tenantCode string
	role       Role
}

// NewActorContext builds an actor context. Partial data is rejected so that the
// identity layer fails closed.
func NewActorContext(userID, tenantID int64, tenantCode string, role Role) (ActorContext, error) {
	if userID <= 0 || tenantID <= 0 || tenantCode == "" || !role.IsValid() {
		return ActorContext{}, ErrIncompleteActor
	}
	return ActorContext{
		userID:     userID,
		tenantID:   tenantID,
		tenantCode: tenantCode,
		role:       role,
	}, nil
}

func (a ActorContext) UserID() int64      { return a.userID }
func (a ActorContext) TenantID() int64    { return a.tenantID }
func (a ActorContext) TenantCode() string { return a.tenantCode }
func (a ActorContext) Role() Role         { return a.role }

// IsAdmin returns true for tenant administrators
func (a ActorContext) IsAdmin() bool {
	return a.role == RoleAdmin
}

// IsZero returns true for a context that was not built with NewActorContext
func (a ActorContext) IsZero() bool {
	return a.userID == 0
}
