package get_slot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type mockService struct{ mock.Mock }

func (m *mockService) GetSlot(ctx context.Context, actor domain.ActorContext, slotID int64) (*models.SlotResponse, error) {
	args := m.Called(ctx, actor, slotID)
	if resp := args.Get(0); resp != nil {
		return resp.(*models.SlotResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		resp       *models.SlotResponse
		err        error
		wantStatus int
	}{
		{"найдено", "5", &models.SlotResponse{ID: 5, Label: "A-1", Status: "active"}, nil, http.StatusOK},
		{"кривой ID", "-1", nil, nil, http.StatusBadRequest},
		{"другой tenant", "5", nil, slots.ErrSlotNotFound, http.StatusNotFound},
		{"внутренняя", "5", nil, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("GetSlot", mock.Anything, mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			a, err := domain.NewActorContext(11, 1, "sunny", domain.RoleResident)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/slots/"+tt.id, nil)
			req = req.WithContext(middleware.WithActor(req.Context(), a))
			req = mux.SetURLVars(req, map[string]string{"slotId": tt.id})
			rec := httptest.NewRecorder()

			NewHandler(svc, logger.Nop()).Handle(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
