package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/actor"
)

const (
	msgUnauthenticated = "требуется авторизация"
	msgTenantInactive  = "сообщество отключено"
)

type actorKey struct{}

// WithActor кладёт участника в контекст запроса
func WithActor(ctx context.Context, a domain.ActorContext) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// GetActor возвращает участника запроса. false - запрос не прошёл Auth.
func GetActor(ctx context.Context) (domain.ActorContext, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.ActorContext)
	if !ok || a.IsZero() {
		return domain.ActorContext{}, false
	}
	return a, true
}

// Auth проверяет Bearer токен и кладёт участника в контекст.
// Любая ошибка разрешения участника закрывает доступ.
func Auth(resolver ActorResolver, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				handlers.RespondUnauthorized(w, msgUnauthenticated)
				return
			}

			a, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, actor.ErrUnauthenticated):
					logger.Warn("%s %s - Unauthenticated: %v", r.Method, r.URL.Path, err)
					handlers.RespondUnauthorized(w, msgUnauthenticated)
				case errors.Is(err, actor.ErrTenantInactive):
					logger.Warn("%s %s - Tenant inactive: %v", r.Method, r.URL.Path, err)
					handlers.RespondForbidden(w, msgTenantInactive)
				case errors.Is(err, actor.ErrNoTenantAssigned):
					logger.Error("%s %s - User without tenant: %v", r.Method, r.URL.Path, err)
					handlers.RespondInternalError(w)
				default:
					logger.Error("%s %s - Failed to resolve actor: %v", r.Method, r.URL.Path, err)
					handlers.RespondInternalError(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
