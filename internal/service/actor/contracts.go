package actor

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/identity"
)

// TokenVerifier проверяет токен сессии identity provider
type TokenVerifier interface {
	Verify(token string) (*identity.Identity, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TenantRepository интерфейс репозитория tenant
type TenantRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
}

// TransactionManager транзакция аутентификации, привязанная к пользователю
type TransactionManager interface {
	DoAsUser(ctx context.Context, userID int64, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
