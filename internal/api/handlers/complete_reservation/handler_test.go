package complete_reservation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	completeReservations "github.com/m04kA/SMC-ParkingService/internal/usecase/complete_reservations"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type mockUseCase struct{ mock.Mock }

func (m *mockUseCase) CompleteOne(ctx context.Context, actor domain.ActorContext, id int64) (*completeReservations.Response, error) {
	args := m.Called(ctx, actor, id)
	if resp := args.Get(0); resp != nil {
		return resp.(*completeReservations.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(t *testing.T, uc *mockUseCase, id string) *httptest.ResponseRecorder {
	t.Helper()
	a, err := domain.NewActorContext(12, 1, "sunny", domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservations/"+id+"/complete", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), a))
	req = mux.SetURLVars(req, map[string]string{"reservationId": id})
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.Nop()).Handle(rec, req)
	return rec
}

func TestHandle_Completed(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("CompleteOne", mock.Anything, mock.Anything, int64(7)).Return(&completeReservations.Response{
		ID: 7, SlotID: 3, RenterID: 11, Status: "completed", CompletedAt: "2030-01-05T12:00:00Z",
	}, nil)

	rec := serve(t, uc, "7")
	require.Equal(t, http.StatusOK, rec.Code)

	var body CompleteReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body.Status)
	assert.Equal(t, "2030-01-05T12:00:00Z", body.CompletedAt)
	uc.AssertExpectations(t)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{"кривой ID", "abc", nil, http.StatusBadRequest},
		{"не admin", "7", completeReservations.ErrAccessDenied, http.StatusForbidden},
		{"не найдено", "7", completeReservations.ErrReservationNotFound, http.StatusNotFound},
		{"ещё идёт", "7", completeReservations.ErrNotDue, http.StatusConflict},
		{"конкуренция", "7", completeReservations.ErrContended, http.StatusServiceUnavailable},
		{"внутренняя", "7", completeReservations.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("CompleteOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(t, uc, tt.id)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}
