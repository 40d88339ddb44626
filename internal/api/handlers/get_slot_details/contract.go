package get_slot_details

import (
	"context"

	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
)

type SlotService interface {
	GetDetail(ctx context.Context, req *models.DetailRequest) (*models.DetailResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
