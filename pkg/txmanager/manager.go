package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/pgerr"
)

var (
	// ErrTransaction возвращается при ошибках начала/фиксации транзакции
	ErrTransaction = errors.New("txmanager: transaction error")

	// ErrNoTenant возвращается при попытке открыть транзакцию без tenant
	ErrNoTenant = errors.New("txmanager: tenant is required")

	// ErrNoUser возвращается при попытке открыть транзакцию аутентификации без пользователя
	ErrNoUser = errors.New("txmanager: user is required")
)

// scope параметр сессии, на который опираются политики row level security
type scope struct {
	setting string
	id      int64
	missing error
}

func tenantScope(tenantID int64) scope {
	return scope{setting: "app.tenant_id", id: tenantID, missing: ErrNoTenant}
}

func userScope(userID int64) scope {
	return scope{setting: "app.user_id", id: userID, missing: ErrNoUser}
}

// DefaultLockTimeout ожидание блокировки строки внутри транзакции
const DefaultLockTimeout = 2 * time.Second

// TxBeginner интерфейс для начала транзакций (*dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager открывает транзакции, привязанные к tenant.
// Каждая транзакция выставляет app.tenant_id, на который опираются политики
// row level security таблиц users, slots и reservations, и lock_timeout, чтобы
// ожидание блокировки завершалось ошибкой ErrContended, а не зависало.
// Единственное исключение - DoAsUser для аутентификации, когда tenant ещё не известен.
type TransactionManager struct {
	db          TxBeginner
	lockTimeout time.Duration
}

type Option func(*TransactionManager)

// WithLockTimeout задает lock_timeout для транзакций
func WithLockTimeout(d time.Duration) Option {
	return func(m *TransactionManager) {
		if d > 0 {
			m.lockTimeout = d
		}
	}
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db TxBeginner, opts ...Option) *TransactionManager {
	m := &TransactionManager{db: db, lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *TransactionManager) Do(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantScope(tenantID), &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE
// Используется для проверки пересечений и вставки бронирования одной атомарной операцией
func (m *TransactionManager) DoSerializable(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantScope(tenantID), &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (m *TransactionManager) DoReadOnly(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantScope(tenantID), &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

// DoAsUser выполняет fn в транзакции только для чтения с app.user_id вместо app.tenant_id.
// Политика users открывает в ней только строку самого пользователя; slots и reservations не видны.
func (m *TransactionManager) DoAsUser(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, userScope(userID), &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, sc scope, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if sc.id <= 0 {
		return sc.missing
	}

	// Вложенный вызов переиспользует внешнюю транзакцию
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return classify("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := m.bind(ctx, tx, sc); err != nil {
		_ = tx.Rollback()
		return classify("bind "+sc.setting, err)
	}

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}

	return nil
}

// bind выставляет параметры, действующие до конца транзакции
func (m *TransactionManager) bind(ctx context.Context, tx dbmetrics.TxExecutor, sc scope) error {
	_, err := tx.ExecContext(ctx,
		"SELECT set_config($1, $2, true), set_config('lock_timeout', $3, true)",
		sc.setting,
		strconv.FormatInt(sc.id, 10),
		strconv.FormatInt(m.lockTimeout.Milliseconds(), 10)+"ms",
	)
	return err
}

func classify(op string, err error) error {
	if pgerr.IsContention(err) {
		return fmt.Errorf("%w: %s: %v", pgerr.ErrContended, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransaction, op, err)
}
