package complete_reservation

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	completeReservations "github.com/m04kA/SMC-ParkingService/internal/usecase/complete_reservations"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "завершать бронирования может только администратор"
	msgNotDue               = "бронирование ещё не закончилось или не подтверждено"
	msgContended            = "бронирование сейчас изменяется, повторите запрос"

	contendedRetryAfter = time.Second
)

// CompleteReservationResponse HTTP response model
type CompleteReservationResponse struct {
	ID          int64  `json:"id"`
	SlotID      int64  `json:"slotId"`
	RenterID    int64  `json:"renterId"`
	Status      string `json:"status"`
	CompletedAt string `json:"completedAt,omitempty"`
}

type Handler struct {
	useCase CompleteReservationUseCase
	logger  Logger
}

func NewHandler(useCase CompleteReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondInternalError(w)
		return
	}

	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/complete - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	result, err := h.useCase.CompleteOne(r.Context(), actor, reservationID)
	if err != nil {
		switch {
		case errors.Is(err, completeReservations.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{id}/complete - Access denied: user_id=%d", actor.UserID())
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, completeReservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, completeReservations.ErrNotDue):
			handlers.RespondConflict(w, msgNotDue)

		case errors.Is(err, completeReservations.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidReservationID)

		case errors.Is(err, completeReservations.ErrContended):
			h.logger.Warn("PATCH /reservations/{id}/complete - Contended: reservation_id=%d", reservationID)
			handlers.RespondUnavailable(w, msgContended, contendedRetryAfter)

		default:
			h.logger.Error("PATCH /reservations/{id}/complete - Failed to complete reservation: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/complete - Reservation completed: reservation_id=%d", reservationID)
	handlers.RespondJSON(w, http.StatusOK, &CompleteReservationResponse{
		ID:          result.ID,
		SlotID:      result.SlotID,
		RenterID:    result.RenterID,
		Status:      result.Status,
		CompletedAt: result.CompletedAt,
	})
}
