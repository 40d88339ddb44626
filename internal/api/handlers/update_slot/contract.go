package update_slot

import (
	"context"

	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
)

type SlotService interface {
	UpdateSlot(ctx context.Context, req *models.SlotRequest) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
