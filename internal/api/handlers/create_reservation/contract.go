package create_reservation

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	createReservation "github.com/m04kA/SMC-ParkingService/internal/usecase/create_reservation"
)

type CreateReservationUseCase interface {
	Execute(ctx context.Context, actor domain.ActorContext, req *createReservation.Request) (*createReservation.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
