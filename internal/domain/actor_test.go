package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActorContext(t *testing.T) {
	actor, err := NewActorContext(5, 1, "maple-court", RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, int64(5), actor.UserID())
	assert.Equal(t, int64(1), actor.TenantID())
	assert.Equal(t, "maple-court", actor.TenantCode())
	assert.True(t, actor.IsAdmin())
	assert.False(t, actor.IsZero())
}

func TestNewActorContext_FailsClosed(t *testing.T) {
	tests := []struct {
		name       string
		userID     int64
		tenantID   int64
		tenantCode string
		role       Role
	}{
		{"no user", 0, 1, "t", RoleResident},
		{"no tenant", 1, 0, "t", RoleResident},
		{"no tenant code", 1, 1, "", RoleResident},
		{"unknown role", 1, 1, "t", Role("owner")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := NewActorContext(tt.userID, tt.tenantID, tt.tenantCode, tt.role)
			assert.ErrorIs(t, err, ErrIncompleteActor)
			assert.True(t, actor.IsZero())
		})
	}
}
