// Package actor определяет, кто выполняет запрос и в каком tenant.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	tenantRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenant"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

// Resolver строит ActorContext по токену сессии.
// Любая неполнота данных приводит к ошибке: частичный контекст не создаётся.
type Resolver struct {
	verifier   TokenVerifier
	userRepo   UserRepository
	tenantRepo TenantRepository
	txManager  TransactionManager
	logger     Logger
}

// NewResolver создает резолвер
func NewResolver(verifier TokenVerifier, userRepo UserRepository, tenantRepo TenantRepository, txManager TransactionManager, logger Logger) *Resolver {
	return &Resolver{
		verifier:   verifier,
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// Resolve проверяет токен и загружает пользователя и его tenant.
// Роль берётся из записи пользователя, а не из токена.
func (r *Resolver) Resolve(ctx context.Context, token string) (domain.ActorContext, error) {
	id, err := r.verifier.Verify(token)
	if err != nil {
		r.logger.Warn("Resolve: token rejected: %v", err)
		return domain.ActorContext{}, ErrUnauthenticated
	}

	// tenant ещё не известен: строка пользователя читается в транзакции с app.user_id
	var user *domain.User
	err = r.txManager.DoAsUser(ctx, id.UserID, func(txCtx context.Context) error {
		var err error
		user, err = r.userRepo.GetByID(txCtx, id.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) || errors.Is(err, txmanager.ErrNoUser) {
			r.logger.Warn("Resolve: user id=%d not found", id.UserID)
			return domain.ActorContext{}, ErrUnauthenticated
		}
		r.logger.Error("Resolve: failed to load user id=%d: %v", id.UserID, err)
		return domain.ActorContext{}, fmt.Errorf("%w: Resolve - load user: %v", ErrInternal, err)
	}

	if !user.IsActive {
		r.logger.Warn("Resolve: user id=%d is disabled", user.ID)
		return domain.ActorContext{}, ErrUnauthenticated
	}

	if user.TenantID == nil {
		r.logger.Error("Resolve: user id=%d has no tenant assigned", user.ID)
		return domain.ActorContext{}, ErrNoTenantAssigned
	}

	tenant, err := r.tenantRepo.GetByID(ctx, *user.TenantID)
	if err != nil {
		if errors.Is(err, tenantRepo.ErrTenantNotFound) {
			r.logger.Error("Resolve: tenant id=%d of user id=%d not found", *user.TenantID, user.ID)
			return domain.ActorContext{}, ErrNoTenantAssigned
		}
		r.logger.Error("Resolve: failed to load tenant id=%d: %v", *user.TenantID, err)
		return domain.ActorContext{}, fmt.Errorf("%w: Resolve - load tenant: %v", ErrInternal, err)
	}

	// Токен выпущен для другого сообщества
	if tenant.Code != id.TenantCode {
		r.logger.Warn("Resolve: token tenant %q does not match user id=%d tenant %q", id.TenantCode, user.ID, tenant.Code)
		return domain.ActorContext{}, ErrUnauthenticated
	}

	if !tenant.IsActive {
		r.logger.Warn("Resolve: tenant id=%d is inactive", tenant.ID)
		return domain.ActorContext{}, ErrTenantInactive
	}

	actor, err := domain.NewActorContext(user.ID, tenant.ID, tenant.Code, user.Role)
	if err != nil {
		r.logger.Error("Resolve: incomplete actor for user id=%d: %v", user.ID, err)
		return domain.ActorContext{}, ErrUnauthenticated
	}

	return actor, nil
}
