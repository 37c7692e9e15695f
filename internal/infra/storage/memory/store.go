// Package memory хранилище в памяти с теми же контрактами, что и Postgres-репозитории.
// Используется в тестах сервисов и usecase. Повторяет ограничения схемы:
// уникальность метки слота в tenant, принадлежность владельца tenant и
// exclusion constraint на пересечение активных бронирований.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	tenantRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenant"
	"github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenantscope"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

// ErrRowSecurity имитирует отказ row level security: запрос к tenant,
// отличному от привязанного к транзакции
var ErrRowSecurity = errors.New("memory: row security violation")

// Store данные всех tenant
type Store struct {
	mu           sync.Mutex
	nextID       int64
	tenants      map[int64]*domain.Tenant
	users        map[int64]*domain.User
	slots        map[int64]*domain.Slot
	reservations map[int64]*domain.Reservation

	// AfterConflictCheck вызывается после HasConflict вне блокировки.
	// Позволяет тестам свести конкурентные попытки в одну точку.
	AfterConflictCheck func()

	// Fail, если задан, возвращается следующей операцией записи бронирования
	Fail error
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		nextID:       1000,
		tenants:      make(map[int64]*domain.Tenant),
		users:        make(map[int64]*domain.User),
		slots:        make(map[int64]*domain.Slot),
		reservations: make(map[int64]*domain.Reservation),
	}
}

// AddTenant добавляет tenant
func (s *Store) AddTenant(t domain.Tenant) *domain.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := t
	s.tenants[t.ID] = &cp
	return &cp
}

// AddUser добавляет пользователя
func (s *Store) AddUser(u domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
	return &cp
}

// AddSlot добавляет слот без проверок схемы
func (s *Store) AddSlot(slot domain.Slot) *domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == 0 {
		slot.ID = s.id()
	}
	cp := slot
	s.slots[slot.ID] = &cp
	return &cp
}

// AddReservation добавляет бронирование без проверок схемы
func (s *Store) AddReservation(r domain.Reservation) *domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	cp := r
	s.reservations[r.ID] = &cp
	return &cp
}

// Reservation возвращает копию бронирования по ID без учёта tenant
func (s *Store) Reservation(id int64) (domain.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, false
	}
	return *r, true
}

// CountReservations считает бронирования слота в статусе
func (s *Store) CountReservations(slotID int64, status domain.ReservationStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.SlotID == slotID && r.Status == status {
			n++
		}
	}
	return n
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Репозитории

func (s *Store) Slots() *SlotRepository               { return &SlotRepository{s: s} }
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }
func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Tenants() *TenantRepository           { return &TenantRepository{s: s} }

// TxManager менеджер транзакций: привязывает tenant к контексту.
// Изоляции нет, атомарность проверки и вставки обеспечивает Create.
type TxManager struct {
	Calls int
	mu    sync.Mutex
}

type (
	tenantKey struct{}
	userKey   struct{}
)

func (m *TxManager) Do(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantID, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantID, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	return m.run(ctx, tenantID, fn)
}

// DoAsUser привязывает к контексту пользователя вместо tenant, как при аутентификации
func (m *TxManager) DoAsUser(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	if userID <= 0 {
		return txmanager.ErrNoUser
	}
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(context.WithValue(ctx, userKey{}, userID))
}

func (m *TxManager) run(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	if tenantID <= 0 {
		return txmanager.ErrNoTenant
	}
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if _, ok := ctx.Value(tenantKey{}).(int64); ok {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, tenantKey{}, tenantID))
}

// checkBound повторяет политику RLS: вне транзакции строки tenant-таблиц не видны,
// внутри - видны только строки привязанного tenant
func checkBound(ctx context.Context, tenantID int64) error {
	bound, ok := ctx.Value(tenantKey{}).(int64)
	if !ok || bound != tenantID {
		return ErrRowSecurity
	}
	return nil
}

// SlotRepository слоты в памяти
type SlotRepository struct{ s *Store }

func (r *SlotRepository) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if err := checkBound(ctx, slot.TenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.slots {
		if existing.TenantID == slot.TenantID && existing.Label == slot.Label {
			return nil, slotRepo.ErrDuplicateLabel
		}
	}
	if owner, ok := slot.Owner(); ok {
		u, exists := r.s.users[owner]
		if !exists || u.TenantID == nil || *u.TenantID != slot.TenantID {
			return nil, slotRepo.ErrOwnerNotInTenant
		}
	}

	now := time.Now().UTC()
	cp := *slot
	cp.ID = r.s.id()
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.slots[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *SlotRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || tenantscope.Check(tenantID, slot.TenantID) != nil {
		return nil, slotRepo.ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *SlotRepository) ListActive(ctx context.Context, tenantID int64) ([]*domain.Slot, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Slot, 0)
	for _, slot := range r.s.slots {
		if slot.TenantID == tenantID && slot.IsActive() {
			cp := *slot
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SlotRepository) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.SlotStatus, at time.Time) error {
	if err := checkBound(ctx, tenantID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || slot.TenantID != tenantID {
		return slotRepo.ErrSlotNotFound
	}
	slot.Status = status
	slot.UpdatedAt = at
	return nil
}

// ReservationRepository бронирования в памяти
type ReservationRepository struct{ s *Store }

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	if err := checkBound(ctx, res.TenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.Fail; err != nil {
		r.s.Fail = nil
		return nil, err
	}

	// exclusion constraint
	if res.IsBlocking() {
		for _, existing := range r.s.reservations {
			if existing.SlotID == res.SlotID && existing.IsBlocking() && existing.Window.Overlaps(res.Window) {
				return nil, reservationRepo.ErrOverlap
			}
		}
	}

	now := time.Now().UTC()
	cp := *res
	cp.ID = r.s.id()
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.reservations[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok || tenantscope.Check(tenantID, res.TenantID) != nil {
		return nil, reservationRepo.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *ReservationRepository) HasConflict(ctx context.Context, tenantID, slotID int64, window domain.Window, excludingID *int64) (bool, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return false, err
	}

	r.s.mu.Lock()
	conflict := false
	for _, existing := range r.s.reservations {
		if existing.TenantID != tenantID || existing.SlotID != slotID || !existing.IsBlocking() {
			continue
		}
		if excludingID != nil && existing.ID == *excludingID {
			continue
		}
		if existing.Window.Overlaps(window) {
			conflict = true
			break
		}
	}
	hook := r.s.AfterConflictCheck
	r.s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return conflict, nil
}

func (r *ReservationRepository) List(ctx context.Context, tenantID int64, filter domain.ReservationsFilter) ([]*domain.Reservation, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Reservation, 0)
	for _, res := range r.s.reservations {
		if res.TenantID != tenantID {
			continue
		}
		if filter.RenterID != nil && res.RenterID != *filter.RenterID {
			continue
		}
		if filter.SlotID != nil && res.SlotID != *filter.SlotID {
			continue
		}
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if filter.From != nil && !res.Window.End.After(*filter.From) {
			continue
		}
		if filter.To != nil && !res.Window.Start.Before(*filter.To) {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	sortByStart(out)

	limit := int(filter.Limit)
	if limit == 0 || limit > domain.MaxListLimit {
		limit = domain.DefaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReservationRepository) ListBlocking(ctx context.Context, tenantID, slotID int64, window domain.Window) ([]*domain.Reservation, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Reservation, 0)
	for _, res := range r.s.reservations {
		if res.TenantID == tenantID && res.SlotID == slotID && res.IsBlocking() && res.Window.Overlaps(window) {
			cp := *res
			out = append(out, &cp)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *ReservationRepository) Cancel(ctx context.Context, tenantID, id, cancelledBy int64, reason *string, at time.Time) error {
	if err := checkBound(ctx, tenantID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.Fail; err != nil {
		r.s.Fail = nil
		return err
	}

	res, ok := r.s.reservations[id]
	if !ok || res.TenantID != tenantID || !res.IsBlocking() {
		return reservationRepo.ErrInvalidTransition
	}
	res.Status = domain.StatusCancelled
	res.CancelledBy = &cancelledBy
	res.CancellationReason = reason
	res.CancelledAt = &at
	res.UpdatedAt = at
	return nil
}

func (r *ReservationRepository) Complete(ctx context.Context, tenantID, id int64, at time.Time) error {
	if err := checkBound(ctx, tenantID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok || res.TenantID != tenantID || !res.IsDue(at) {
		return reservationRepo.ErrInvalidTransition
	}
	complete(res, at)
	return nil
}

func (r *ReservationRepository) CompleteDue(ctx context.Context, tenantID int64, now time.Time, limit uint64) (int64, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	due := make([]*domain.Reservation, 0)
	for _, res := range r.s.reservations {
		if res.TenantID == tenantID && res.IsDue(now) {
			due = append(due, res)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Window.End.Before(due[j].Window.End) })
	if uint64(len(due)) > limit {
		due = due[:limit]
	}
	for _, res := range due {
		complete(res, now)
	}
	return int64(len(due)), nil
}

func complete(res *domain.Reservation, at time.Time) {
	res.Status = domain.StatusCompleted
	res.CompletedAt = &at
	res.UpdatedAt = at
}

func sortByStart(rs []*domain.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Window.Start.Equal(rs[j].Window.Start) {
			return rs[i].Window.Start.Before(rs[j].Window.Start)
		}
		return rs[i].ID < rs[j].ID
	})
}

// UserRepository пользователи в памяти
type UserRepository struct{ s *Store }

// GetByID повторяет политику users: видна своя строка при аутентификации
// или строка привязанного tenant
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	self, isAuth := ctx.Value(userKey{}).(int64)
	bound, isTenant := ctx.Value(tenantKey{}).(int64)
	if !isAuth && !isTenant {
		return nil, ErrRowSecurity
	}

	u, ok := r.s.users[id]
	if !ok {
		return nil, userRepo.ErrUserNotFound
	}
	if !(isAuth && self == id) && !(isTenant && u.BelongsTo(bound)) {
		return nil, userRepo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetMember(ctx context.Context, tenantID, id int64) (*domain.User, error) {
	if err := checkBound(ctx, tenantID); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || !u.BelongsTo(tenantID) {
		return nil, userRepo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// TenantRepository tenant в памяти
type TenantRepository struct{ s *Store }

func (r *TenantRepository) GetByID(_ context.Context, id int64) (*domain.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return nil, tenantRepo.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TenantRepository) ListActiveIDs(_ context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]int64, 0, len(r.s.tenants))
	for id, t := range r.s.tenants {
		if t.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
