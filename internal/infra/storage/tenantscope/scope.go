// Package tenantscope строит запросы к tenant-таблицам (slots, reservations, users)
// так, что предикат tenant_id добавляется всегда и централизованно.
// Репозитории не используют psqlbuilder напрямую для этих таблиц.
//
// Вторая линия защиты - политики row level security в БД (см. migrations),
// которые опираются на app.tenant_id, выставляемый txmanager в каждой транзакции.
package tenantscope

import (
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Column колонка tenant во всех tenant-таблицах
const Column = "tenant_id"

var (
	// ErrNoTenant возвращается при попытке построить запрос без tenant
	ErrNoTenant = errors.New("tenantscope: tenant is required")

	// ErrCrossTenant возвращается, когда строка из БД принадлежит другому tenant
	ErrCrossTenant = errors.New("tenantscope: row belongs to another tenant")
)

// Select начинает SELECT из table, ограниченный tenant
func Select(tenantID int64, table string, columns ...string) (squirrel.SelectBuilder, error) {
	if tenantID <= 0 {
		return squirrel.SelectBuilder{}, ErrNoTenant
	}
	return psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{table + "." + Column: tenantID}), nil
}

// Insert начинает INSERT в table; колонка tenant_id добавляется первой
func Insert(tenantID int64, table string, columns []string, values []interface{}) (squirrel.InsertBuilder, error) {
	if tenantID <= 0 {
		return squirrel.InsertBuilder{}, ErrNoTenant
	}
	return psqlbuilder.Insert(table).
		Columns(append([]string{Column}, columns...)...).
		Values(append([]interface{}{tenantID}, values...)...), nil
}

// Update начинает UPDATE table, ограниченный tenant
func Update(tenantID int64, table string) (squirrel.UpdateBuilder, error) {
	if tenantID <= 0 {
		return squirrel.UpdateBuilder{}, ErrNoTenant
	}
	return psqlbuilder.Update(table).
		Where(squirrel.Eq{Column: tenantID}), nil
}

// Check сверяет tenant строки, прочитанной из БД, с tenant запроса
func Check(tenantID, rowTenantID int64) error {
	if tenantID <= 0 || tenantID != rowTenantID {
		return ErrCrossTenant
	}
	return nil
}
