package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenantscope"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
)

const table = "slots"

var columns = []string{
	"slots.id",
	"slots.tenant_id",
	"slots.label",
	"slots.slot_type",
	"slots.owner_id",
	"slots.hourly_rate",
	"slots.status",
	"slots.created_at",
	"slots.updated_at",
}

// Repository репозиторий слотов. Все методы ограничены tenant.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает слот в tenant слота.
// Принадлежность владельца tenant проверяется составным внешним ключом (tenant_id, owner_id).
func (r *Repository) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Insert(slot.TenantID, table,
		[]string{"label", "slot_type", "owner_id", "hourly_rate", "status"},
		[]interface{}{slot.Label, slot.Type, slot.OwnerID, slot.Rate, slot.Status},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.Suffix("RETURNING id, created_at, updated_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
	switch {
	case err == nil:
		return slot, nil
	case pgerr.IsUniqueViolation(err):
		return nil, ErrDuplicateLabel
	case pgerr.IsForeignKeyViolation(err):
		return nil, ErrOwnerNotInTenant
	default:
		return nil, wrapExec("Create - execute insert", err)
	}
}

// GetByID получает слот по ID в рамках tenant.
// Слот другого tenant неотличим от отсутствующего.
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	return r.getByID(ctx, tenantID, id, false)
}

// GetByIDForUpdate получает слот и блокирует его строку до конца транзакции.
// Блокировка строки слота сериализует конкурентные попытки бронирования одного слота.
func (r *Repository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, fmt.Errorf("%w: GetByIDForUpdate - transaction required", ErrExecQuery)
	}
	return r.getByID(ctx, tenantID, id, true)
}

func (r *Repository) getByID(ctx context.Context, tenantID, id int64, forUpdate bool) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - %v", ErrBuildQuery, err)
	}
	builder = builder.Where(squirrel.Eq{"slots.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, wrapExec("GetByID - scan slot", err)
	}

	if err := tenantscope.Check(tenantID, slot.TenantID); err != nil {
		return nil, ErrSlotNotFound
	}

	return slot, nil
}

// ListActive возвращает активные слоты tenant, отсортированные по метке
func (r *Repository) ListActive(ctx context.Context, tenantID int64) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Where(squirrel.Eq{"slots.status": domain.SlotStatusActive}).
		OrderBy("slots.label ASC", "slots.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec("ListActive - execute query", err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActive - scan row: %v", ErrScanRow, err)
		}
		// строки чужого tenant отбрасываются
		if tenantscope.Check(tenantID, slot.TenantID) != nil {
			continue
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// UpdateStatus обновляет статус слота
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.SlotStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Update(tenantID, table)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapExec("UpdateStatus - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var slot domain.Slot
	err := row.Scan(
		&slot.ID,
		&slot.TenantID,
		&slot.Label,
		&slot.Type,
		&slot.OwnerID,
		&slot.Rate,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// wrapExec отделяет конфликты блокировок (их можно повторить) от прочих ошибок
func wrapExec(op string, err error) error {
	if pgerr.IsContention(err) {
		return fmt.Errorf("%w: %s: %v", pgerr.ErrContended, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
