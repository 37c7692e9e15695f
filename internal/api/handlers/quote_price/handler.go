package quote_price

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots"
)

const (
	msgInvalidSlotID = "некорректный ID парковочного места"
	msgInvalidWindow = "некорректный интервал, ожидаются start и end в формате RFC 3339"
	msgSlotNotFound  = "парковочное место не найдено"
	msgDenied        = "бронирование этого места недоступно"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/slots/{slotId}/quote?start=&end=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondInternalError(w)
		return
	}

	slotID, err := handlers.PathID(r, "slotId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	start, err := handlers.QueryTime(r, "start")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}
	end, err := handlers.QueryTime(r, "end")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}

	result, err := h.service.Quote(r.Context(), actor, slotID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidWindow)
		case errors.Is(err, slots.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)
		case errors.Is(err, slots.ErrAccessDenied):
			h.logger.Warn("GET /slots/{id}/quote - Denied: slot_id=%d, user_id=%d, error=%v", slotID, actor.UserID(), err)
			handlers.RespondForbidden(w, msgDenied)
		default:
			h.logger.Error("GET /slots/{id}/quote - Failed to quote: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
