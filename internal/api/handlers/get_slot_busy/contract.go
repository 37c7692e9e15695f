package get_slot_busy

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

type SlotService interface {
	ListBusyWindows(ctx context.Context, actor domain.ActorContext, slotID int64, from, to time.Time) (*models.BusyWindowsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
