package middleware

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// ActorResolver восстанавливает участника по токену
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (domain.ActorContext, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
