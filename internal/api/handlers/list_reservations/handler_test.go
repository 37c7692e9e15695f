package list_reservations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type mockService struct{ mock.Mock }

func (m *mockService) ListMine(ctx context.Context, actor domain.ActorContext, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	args := m.Called(ctx, actor, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*models.ReservationListResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(t *testing.T, svc *mockService, query string) *httptest.ResponseRecorder {
	t.Helper()
	a, err := domain.NewActorContext(11, 1, "sunny", domain.RoleResident)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations"+query, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), a))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.Nop()).Handle(rec, req)
	return rec
}

func TestParseListRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?status=confirmed&from=2030-01-02T00:00:00%2B03:00&limit=20", nil)

	got, err := ParseListRequest(req)
	require.NoError(t, err)
	require.NotNil(t, got.Status)
	assert.Equal(t, "confirmed", *got.Status)
	require.NotNil(t, got.From)
	assert.True(t, time.Date(2030, 1, 1, 21, 0, 0, 0, time.UTC).Equal(*got.From))
	assert.Nil(t, got.To)
	assert.Equal(t, uint64(20), got.Limit)

	got, err = ParseListRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, got.Status)
	assert.Zero(t, got.Limit)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
	}{
		{"без фильтра", "", nil, http.StatusOK},
		{"по статусу", "?status=pending", nil, http.StatusOK},
		{"кривой limit", "?limit=-1", nil, http.StatusBadRequest},
		{"кривой from", "?from=yesterday", nil, http.StatusBadRequest},
		{"неизвестный статус", "?status=lost", reservations.ErrInvalidInput, http.StatusBadRequest},
		{"внутренняя", "", reservations.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			if tt.err != nil {
				svc.On("ListMine", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				svc.On("ListMine", mock.Anything, mock.Anything, mock.Anything).
					Return(&models.ReservationListResponse{Reservations: []models.ReservationResponse{}}, nil)
			}

			rec := serve(t, svc, tt.query)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
