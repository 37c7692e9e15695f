package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/actor"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, token string) (domain.ActorContext, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.ActorContext), args.Error(1)
}

func testActor(t *testing.T, userID int64) domain.ActorContext {
	t.Helper()
	a, err := domain.NewActorContext(userID, 1, "sunny", domain.RoleResident)
	require.NoError(t, err)
	return a
}

func TestAuth(t *testing.T) {
	resident := testActor(t, 7)

	tests := []struct {
		name       string
		header     string
		resolveErr error
		wantStatus int
	}{
		{"нет заголовка", "", nil, http.StatusUnauthorized},
		{"не bearer", "Basic abc", nil, http.StatusUnauthorized},
		{"валидный токен", "Bearer good", nil, http.StatusOK},
		{"невалидный токен", "Bearer good", actor.ErrUnauthenticated, http.StatusUnauthorized},
		{"tenant отключён", "Bearer good", actor.ErrTenantInactive, http.StatusForbidden},
		{"пользователь без tenant", "Bearer good", actor.ErrNoTenantAssigned, http.StatusInternalServerError},
		{"сбой хранилища", "Bearer good", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{}
			resolver.On("Resolve", mock.Anything, "good").Return(resident, tt.resolveErr).Maybe()

			var got domain.ActorContext
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = GetActor(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Auth(resolver, logger.Nop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, resident, got)
			}
		})
	}
}

func TestGetActor_Missing(t *testing.T) {
	_, ok := GetActor(context.Background())
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	const given = "7f1a9c3e-2b4d-4e6f-8a0b-1c2d3e4f5a6b"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, given)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, given, seen)
}

func TestRateLimiter_PerActor(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	frozen := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	call := func(a domain.ActorContext) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req = req.WithContext(WithActor(req.Context(), a))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first, second := testActor(t, 1), testActor(t, 2)
	assert.Equal(t, http.StatusCreated, call(first).Code)
	assert.Equal(t, http.StatusCreated, call(first).Code)

	limited := call(first)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	var body handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(limited.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)

	assert.Equal(t, http.StatusCreated, call(second).Code)

	rl.now = func() time.Time { return frozen.Add(time.Hour) }
	assert.Equal(t, 2, rl.Cleanup())
}

func TestRecover(t *testing.T) {
	h := Recover(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
