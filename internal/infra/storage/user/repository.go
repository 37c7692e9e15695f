package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenantscope"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

const table = "users"

var columns = []string{
	"users.id",
	"users.tenant_id",
	"users.role",
	"users.display_name",
	"users.phone",
	"users.email",
	"users.unit",
	"users.is_active",
	"users.created_at",
	"users.updated_at",
}

// Repository репозиторий пользователей (только чтение).
// Пользователи заводятся identity provider и административными инструментами.
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория пользователей
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает пользователя по ID без ограничения tenant в запросе.
// Используется при аутентификации внутри txmanager.DoAsUser: политика users
// открывает в такой транзакции только строку самого пользователя.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"users.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	user, err := scanUser(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan user: %v", ErrExecQuery, err)
	}

	return user, nil
}

// GetMember получает активного пользователя tenant.
// Пользователь другого tenant или отключённый неотличим от отсутствующего.
func (r *Repository) GetMember(ctx context.Context, tenantID, id int64) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder, err := tenantscope.Select(tenantID, table, columns...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetMember - %v", ErrBuildQuery, err)
	}

	query, args, err := builder.
		Where(squirrel.Eq{"users.id": id}).
		Where(squirrel.Eq{"users.is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetMember - build select query: %v", ErrBuildQuery, err)
	}

	user, err := scanUser(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetMember - scan user: %v", ErrExecQuery, err)
	}

	if !user.BelongsTo(tenantID) {
		return nil, ErrUserNotFound
	}

	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Role,
		&user.DisplayName,
		&user.Phone,
		&user.Email,
		&user.Unit,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
