package complete_reservation

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	completeReservations "github.com/m04kA/SMC-ParkingService/internal/usecase/complete_reservations"
)

type CompleteReservationUseCase interface {
	CompleteOne(ctx context.Context, actor domain.ActorContext, id int64) (*completeReservations.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
