package list_availability

import (
	"context"

	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
)

type SlotService interface {
	ListAvailability(ctx context.Context, req *models.ListAvailabilityRequest) ([]models.AvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
