package tenantscope

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_AddsTenantPredicate(t *testing.T) {
	b, err := Select(7, "slots", "id", "label")
	require.NoError(t, err)

	query, args, err := b.Where(squirrel.Eq{"id": 3}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, label FROM slots WHERE slots.tenant_id = $1 AND id = $2", query)
	assert.Equal(t, []interface{}{int64(7), 3}, args)
}

func TestInsert_PrependsTenantColumn(t *testing.T) {
	b, err := Insert(7, "slots", []string{"label"}, []interface{}{"A-1"})
	require.NoError(t, err)

	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO slots (tenant_id,label) VALUES ($1,$2)", query)
	assert.Equal(t, []interface{}{int64(7), "A-1"}, args)
}

func TestUpdate_AddsTenantPredicate(t *testing.T) {
	b, err := Update(7, "reservations")
	require.NoError(t, err)

	query, args, err := b.Set("status", "cancelled").Where(squirrel.Eq{"id": 1}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE reservations SET status = $1 WHERE tenant_id = $2 AND id = $3", query)
	assert.Equal(t, []interface{}{"cancelled", int64(7), 1}, args)
}

func TestBuilders_RequireTenant(t *testing.T) {
	_, err := Select(0, "slots", "id")
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = Insert(-1, "slots", nil, nil)
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = Update(0, "slots")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(1, 1))
	assert.ErrorIs(t, Check(1, 2), ErrCrossTenant)
	assert.ErrorIs(t, Check(0, 0), ErrCrossTenant)
}
