package list_availability

import (
	"errors"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
	"github.com/m04kA/SMC-SlotCalendar/pkg/ptr"
)

var errMissingEndDate = errors.New("end_date is required")

// Query query параметры запроса доступности
type Query struct {
	UserID    string `validate:"required"`
	StartDate string `validate:"required"`
	EndDate   string
}

// ToServiceRequest конвертирует query параметры в запрос сервиса
// requireEnd - end_date обязателен (маршрут /slots/total)
func (q Query) ToServiceRequest(requireEnd bool) (*models.ListAvailabilityRequest, error) {
	startDate, err := handlers.ParseDate(q.StartDate)
	if err != nil {
		return nil, err
	}

	req := &models.ListAvailabilityRequest{
		UserID:    q.UserID,
		StartDate: startDate,
	}

	if q.EndDate == "" {
		if requireEnd {
			return nil, errMissingEndDate
		}
		return req, nil
	}

	endDate, err := handlers.ParseDate(q.EndDate)
	if err != nil {
		return nil, err
	}
	req.EndDate = ptr.Ptr(endDate)

	return req, nil
}
