package create_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные парковочного места"
	msgDuplicateLabel     = "место с таким номером уже существует"
	msgInvalidOwner       = "владелец не является участником сообщества"
	msgForbidden          = "недостаточно прав для создания места"
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

// Handle POST /api/v1/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondInternalError(w)
		return
	}

	var req models.CreateSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.CreateSlot(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrInvalidInput):
			h.logger.Warn("POST /slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, slots.ErrDuplicateLabel):
			h.logger.Warn("POST /slots - Duplicate label: tenant_id=%d, label=%q", actor.TenantID(), req.Label)
			handlers.RespondConflict(w, msgDuplicateLabel)

		case errors.Is(err, slots.ErrInvalidOwner):
			handlers.RespondBadRequest(w, msgInvalidOwner)

		case errors.Is(err, slots.ErrAccessDenied):
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("POST /slots - Failed to create slot: tenant_id=%d, error=%v", actor.TenantID(), err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots - Slot created: slot_id=%d, tenant_id=%d", result.ID, actor.TenantID())
	handlers.RespondJSON(w, http.StatusCreated, result)
}
