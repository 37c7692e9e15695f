package get_reservation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type mockService struct{ mock.Mock }

func (m *mockService) Get(ctx context.Context, actor domain.ActorContext, id int64) (*models.ReservationResponse, error) {
	args := m.Called(ctx, actor, id)
	if resp := args.Get(0); resp != nil {
		return resp.(*models.ReservationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(t *testing.T, svc *mockService, id string) *httptest.ResponseRecorder {
	t.Helper()
	a, err := domain.NewActorContext(13, 1, "sunny", domain.RoleResident)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/"+id, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), a))
	req = mux.SetURLVars(req, map[string]string{"reservationId": id})
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.Nop()).Handle(rec, req)
	return rec
}

func TestHandle_Found(t *testing.T) {
	svc := &mockService{}
	svc.On("Get", mock.Anything, mock.Anything, int64(7)).
		Return(&models.ReservationResponse{ID: 7, SlotID: 3, RenterID: 13, Status: "confirmed"}, nil)

	rec := serve(t, svc, "7")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.ID)
	assert.Equal(t, "confirmed", body.Status)
	svc.AssertExpectations(t)
}

// Чужое бронирование неотличимо от отсутствующего
func TestHandle_NotVisibleIsNotFound(t *testing.T) {
	svc := &mockService{}
	svc.On("Get", mock.Anything, mock.Anything, int64(7)).Return(nil, reservations.ErrReservationNotFound)

	rec := serve(t, svc, "7")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, msgNotFound, body.Error)
}

func TestHandle_Errors(t *testing.T) {
	t.Run("кривой ID", func(t *testing.T) {
		svc := &mockService{}
		rec := serve(t, svc, "0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("внутренняя", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		rec := serve(t, svc, "7")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
