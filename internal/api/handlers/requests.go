package handlers

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

// SlotBody тело запросов POST /slot/add, PUT /slot/update, DELETE /slot/remove
type SlotBody struct {
	UserID string   `json:"user_id" validate:"required"`
	Date   string   `json:"date" validate:"required,datetime=2006-01-02"`
	Slot   SlotTime `json:"slot"`
}

// SlotTime интервал в формате HH:MM или HH:MM:SS
type SlotTime struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ToServiceRequest конвертирует тело запроса в запрос сервиса
func (b *SlotBody) ToServiceRequest() (*models.SlotRequest, error) {
	date, err := ParseDate(b.Date)
	if err != nil {
		return nil, err
	}

	start, err := types.NewTimeStringFromString(b.Slot.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start_time: %w", err)
	}

	end, err := types.NewTimeStringFromString(b.Slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end_time: %w", err)
	}

	return &models.SlotRequest{
		UserID: b.UserID,
		Date:   date,
		Slot:   models.Slot{StartTime: start, EndTime: end},
	}, nil
}

// ParseDate парсит дату YYYY-MM-DD
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return date, nil
}
