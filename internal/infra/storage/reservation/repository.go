package reservation

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

const table = "reservations"

var columns = []string{
	"reservations.id",
	"reservations.tenant_id",
	"reservations.slot_id",
	"reservations.renter_id",
	"reservations.start_at",
	"reservations.end_at",
	"reservations.status",
	"reservations.total_price",
	"reservations.quote_required",
	"reservations.cancelled_by",
	"reservations.cancellation_reason",
	"reservations.cancelled_at",
	"reservations.completed_at",
	"reservations.created_at",
	"reservations.updated_at",
}

// Repository репозиторий бронирований. Все методы ограничены tenant.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование.
// Вызывается внутри сериализуемой транзакции после HasConflict; exclusion constraint
// reservations_no_overlap гарантирует отсутствие пересечений даже при ошибке в коде выше.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Insert(res.TenantID, table,
		[]string{"slot_id", "renter_id", "start_at", "end_at", "status", "total_price", "quote_required"},
		[]interface{}{res.SlotID, res.RenterID, res.Window.Start, res.Window.End, res.Status, res.TotalPrice, res.QuoteRequired},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.Suffix("RETURNING id, created_at, updated_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	switch {
	case err == nil:
		return res, nil
	case pgerr.IsExclusionViolation(err):
		return nil, ErrOverlap
	default:
		return nil, wrapExec("Create - execute insert", err)
	}
}

// GetByID получает бронирование по ID в рамках tenant
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, tenantID, id, false)
}

// GetByIDForUpdate получает бронирование и блокирует строку до конца транзакции
func (r *Repository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, fmt.Errorf("%w: GetByIDForUpdate - transaction required", ErrExecQuery)
	}
	return r.getByID(ctx, tenantID, id, true)
}

func (r *Repository) getByID(ctx context.Context, tenantID, id int64, forUpdate bool) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - %v", ErrBuildQuery, err)
	}
	builder = builder.Where(squirrel.Eq{"reservations.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, wrapExec("GetByID - scan reservation", err)
	}

	if err := tenantscope.Check(tenantID, res.TenantID); err != nil {
		return nil, ErrReservationNotFound
	}

	return res, nil
}

// HasConflict проверяет, есть ли у слота активное (pending/confirmed) бронирование,
// пересекающееся с окном. Пересечение: existing.start < new.end AND existing.end > new.start.
// excludingID исключает само бронирование при переносе/продлении.
func (r *Repository) HasConflict(ctx context.Context, tenantID, slotID int64, window domain.Window, excludingID *int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, "1")
	if err != nil {
		return false, fmt.Errorf("%w: HasConflict - %v", ErrBuildQuery, err)
	}

	builder = builder.
		Where(squirrel.Eq{"reservations.slot_id": slotID}).
		Where(squirrel.Eq{"reservations.status": blockingStatuses()}).
		Where(squirrel.Lt{"reservations.start_at": window.End}).
		Where(squirrel.Gt{"reservations.end_at": window.Start})

	if excludingID != nil {
		builder = builder.Where(squirrel.NotEq{"reservations.id": *excludingID})
	}

	query, args, err := builder.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasConflict - build select query: %v", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, wrapExec("HasConflict - scan", err)
	}

	return exists, nil
}

// List получает бронирования tenant с фильтрацией, по возрастанию начала
func (r *Repository) List(ctx context.Context, tenantID int64, filter domain.ReservationsFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - %v", ErrBuildQuery, err)
	}

	if filter.RenterID != nil {
		builder = builder.Where(squirrel.Eq{"reservations.renter_id": *filter.RenterID})
	}
	if filter.SlotID != nil {
		builder = builder.Where(squirrel.Eq{"reservations.slot_id": *filter.SlotID})
	}
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"reservations.status": *filter.Status})
	}
	if filter.From != nil {
		builder = builder.Where(squirrel.Gt{"reservations.end_at": *filter.From})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"reservations.start_at": *filter.To})
	}

	limit := filter.Limit
	if limit == 0 || limit > domain.MaxListLimit {
		limit = domain.DefaultListLimit
	}

	query, args, err := builder.
		OrderBy("reservations.start_at ASC", "reservations.id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec("List - execute query", err)
	}
	defer rows.Close()

	return scanReservations(rows, tenantID)
}

// ListBlocking возвращает активные бронирования слота, пересекающиеся с окном
func (r *Repository) ListBlocking(ctx context.Context, tenantID, slotID int64, window domain.Window) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlocking - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Where(squirrel.Eq{"reservations.slot_id": slotID}).
		Where(squirrel.Eq{"reservations.status": blockingStatuses()}).
		Where(squirrel.Lt{"reservations.start_at": window.End}).
		Where(squirrel.Gt{"reservations.end_at": window.Start}).
		OrderBy("reservations.start_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlocking - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec("ListBlocking - execute query", err)
	}
	defer rows.Close()

	return scanReservations(rows, tenantID)
}

// Cancel переводит pending/confirmed бронирование в cancelled
func (r *Repository) Cancel(ctx context.Context, tenantID, id, cancelledBy int64, reason *string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Update(tenantID, table)
	if err != nil {
		return fmt.Errorf("%w: Cancel - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Set("status", domain.StatusCancelled).
		Set("cancelled_by", cancelledBy).
		Set("cancellation_reason", reason).
		Set("cancelled_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": blockingStatuses()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "Cancel", query, args)
}

// Complete переводит confirmed бронирование, окно которого закончилось, в completed
func (r *Repository) Complete(ctx context.Context, tenantID, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Update(tenantID, table)
	if err != nil {
		return fmt.Errorf("%w: Complete - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Set("status", domain.StatusCompleted).
		Set("completed_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.LtOrEq{"end_at": at}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	return r.execTransition(ctx, executor, "Complete", query, args)
}

// CompleteDue завершает до limit подтверждённых бронирований tenant, закончившихся к now.
// Строки, заблокированные другими транзакциями, пропускаются (SKIP LOCKED).
func (r *Repository) CompleteDue(ctx context.Context, tenantID int64, now time.Time, limit uint64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder, err := tenantscope.Select(tenantID, table, "reservations.id")
	if err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - %v", ErrBuildQuery, err)
	}

	query, args, err := selectBuilder.
		Where(squirrel.Eq{"reservations.status": domain.StatusConfirmed}).
		Where(squirrel.LtOrEq{"reservations.end_at": now}).
		OrderBy("reservations.end_at ASC").
		Limit(limit).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, wrapExec("CompleteDue - select due", err)
	}

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("%w: CompleteDue - scan id: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - rows error: %v", ErrScanRow, err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	updateBuilder, err := tenantscope.Update(tenantID, table)
	if err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - %v", ErrBuildQuery, err)
	}

	query, args, err = updateBuilder.
		Set("status", domain.StatusCompleted).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapExec("CompleteDue - execute update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: CompleteDue - get rows affected: %v", ErrExecQuery, err)
	}

	return affected, nil
}

func (r *Repository) execTransition(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapExec(op+" - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrInvalidTransition
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.TenantID,
		&res.SlotID,
		&res.RenterID,
		&res.Window.Start,
		&res.Window.End,
		&res.Status,
		&res.TotalPrice,
		&res.QuoteRequired,
		&res.CancelledBy,
		&res.CancellationReason,
		&res.CancelledAt,
		&res.CompletedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Window.Start = res.Window.Start.UTC()
	res.Window.End = res.Window.End.UTC()
	return &res, nil
}

// scanReservations сканирует результаты запроса, отбрасывая строки чужого tenant
func scanReservations(rows *sql.Rows, tenantID int64) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		if tenantscope.Check(tenantID, res.TenantID) != nil {
			continue
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

func blockingStatuses() []string {
	statuses := make([]string, len(domain.BlockingStatuses))
	for i, s := range domain.BlockingStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

// wrapExec отделяет конфликты блокировок (их можно повторить) от прочих ошибок
func wrapExec(op string, err error) error {
	if pgerr.IsContention(err) {
		return fmt.Errorf("%w: %s: %v", pgerr.ErrContended, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
