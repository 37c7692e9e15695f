package create_reservation

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-ParkingService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "не указан слот"
	msgEmptyWindow        = "время окончания должно быть позже времени начала"
	msgWindowInPast       = "нельзя бронировать в прошлом"
	msgWindowTooShort     = "интервал бронирования слишком короткий"
	msgWindowTooLong      = "интервал бронирования слишком длинный"
	msgWindowTooFarAhead  = "дата бронирования слишком далеко в будущем"
	msgInvalidWindow      = "некорректный интервал бронирования"
	msgSlotNotFound       = "парковочное место не найдено"
	msgDenied             = "бронирование этого места недоступно"
	msgAlreadyBooked      = "место уже занято на выбранное время"
	msgContended          = "место сейчас бронируют, повторите попытку"

	contendedRetryAfter = time.Second
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondInternalError(w)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), actor, req.ToUseCaseRequest())
	if err != nil {
		var denied *createReservation.DeniedError
		switch {
		case errors.As(err, &denied):
			h.logger.Warn("POST /reservations - Denied: user_id=%d, slot_id=%d, reason=%s", actor.UserID(), req.SlotID, denied.Reason)
			handlers.RespondDenied(w, msgDenied, string(denied.Reason))

		case errors.Is(err, createReservation.ErrAlreadyBooked):
			h.logger.Warn("POST /reservations - Already booked: user_id=%d, slot_id=%d", actor.UserID(), req.SlotID)
			handlers.RespondConflict(w, msgAlreadyBooked)

		case errors.Is(err, createReservation.ErrSlotNotFound):
			h.logger.Warn("POST /reservations - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, createReservation.ErrInvalidWindow):
			h.logger.Warn("POST /reservations - Invalid window: user_id=%d, slot_id=%d, error=%v", actor.UserID(), req.SlotID, err)
			handlers.RespondBadRequest(w, windowMessage(err))

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createReservation.ErrContended):
			h.logger.Warn("POST /reservations - Contended: user_id=%d, slot_id=%d", actor.UserID(), req.SlotID)
			handlers.RespondUnavailable(w, msgContended, contendedRetryAfter)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: user_id=%d, slot_id=%d, error=%v",
				actor.UserID(), req.SlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if result.QuoteRequired {
		status = http.StatusAccepted
	}

	h.logger.Info("POST /reservations - Reservation created: reservation_id=%d, user_id=%d, slot_id=%d, status=%s",
		result.ID, actor.UserID(), req.SlotID, result.Status)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}

func windowMessage(err error) string {
	switch {
	case errors.Is(err, createReservation.ErrEmptyWindow):
		return msgEmptyWindow
	case errors.Is(err, createReservation.ErrWindowInPast):
		return msgWindowInPast
	case errors.Is(err, createReservation.ErrWindowTooShort):
		return msgWindowTooShort
	case errors.Is(err, createReservation.ErrWindowTooLong):
		return msgWindowTooLong
	case errors.Is(err, createReservation.ErrWindowTooFarAhead):
		return msgWindowTooFarAhead
	default:
		return msgInvalidWindow
	}
}
