package get_slot_details

import (
	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
)

// Query query параметры запроса слотов на дату
type Query struct {
	UserID string `validate:"required"`
	Date   string `validate:"required"`
}

func (q Query) ToServiceRequest() (*models.DetailRequest, error) {
	date, err := handlers.ParseDate(q.Date)
	if err != nil {
		return nil, err
	}
	return &models.DetailRequest{UserID: q.UserID, Date: date}, nil
}
