package list_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations"
	"github.com/m04kA/SMC-ParkingService/internal/service/reservations/models"
)

const (
	msgInvalidQuery = "некорректные параметры фильтра"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/reservations?status=&from=&to=&limit=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondInternalError(w)
		return
	}

	req, err := ParseListRequest(r)
	if err != nil {
		h.logger.Warn("GET /reservations - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.ListMine(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgInvalidQuery)
			return
		}
		h.logger.Error("GET /reservations - Failed to list reservations: user_id=%d, error=%v", actor.UserID(), err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ParseListRequest читает фильтр списка бронирований из query
func ParseListRequest(r *http.Request) (*models.ListReservationsRequest, error) {
	from, err := handlers.OptionalQueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := handlers.OptionalQueryTime(r, "to")
	if err != nil {
		return nil, err
	}
	limit, err := handlers.QueryLimit(r)
	if err != nil {
		return nil, err
	}

	return &models.ListReservationsRequest{
		Status: handlers.OptionalQueryString(r, "status"),
		From:   from,
		To:     to,
		Limit:  limit,
	}, nil
}
