package models

import (
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

// Request модели

// ListAvailabilityRequest запрос доступности за период
// EndDate == nil означает период без верхней границы
type ListAvailabilityRequest struct {
	UserID    string
	StartDate time.Time
	EndDate   *time.Time
}

// DetailRequest запрос слотов на одну дату
type DetailRequest struct {
	UserID string
	Date   time.Time
}

// SlotRequest запрос на добавление, изменение или удаление слота
type SlotRequest struct {
	UserID string
	Date   time.Time
	Slot   Slot
}

// Slot слот в формате API
type Slot struct {
	StartTime types.TimeString `json:"start_time"`
	EndTime   types.TimeString `json:"end_time"`
}

// ToDomain конвертирует слот в domain модель
func (s Slot) ToDomain() domain.Slot {
	return domain.Slot{Start: s.StartTime, End: s.EndTime}
}

// Response модели

// AvailabilityResponse доступность на одну дату
type AvailabilityResponse struct {
	Date           string `json:"date"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
}

// DetailResponse доступность на дату вместе со слотами, отсортированными по началу
type DetailResponse struct {
	Date           string `json:"date"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
	Slots          []Slot `json:"slots"`
}

// FromDomainAvailability конвертирует запись дня в AvailabilityResponse
func FromDomainAvailability(day *domain.DaySlots) AvailabilityResponse {
	return AvailabilityResponse{
		Date:           day.Date.Format(domain.DateFormat),
		TotalSlots:     domain.MaxSlotsPerDay,
		AvailableSlots: day.Available(),
	}
}

// FromDomainAvailabilityList конвертирует список записей в список AvailabilityResponse
func FromDomainAvailabilityList(days []*domain.DaySlots) []AvailabilityResponse {
	result := make([]AvailabilityResponse, 0, len(days))
	for _, day := range days {
		result = append(result, FromDomainAvailability(day))
	}
	return result
}

// FromDomainDetail конвертирует запись дня в DetailResponse
func FromDomainDetail(day *domain.DaySlots) *DetailResponse {
	sorted := day.SortedSlots()
	slots := make([]Slot, 0, len(sorted))
	for _, s := range sorted {
		slots = append(slots, Slot{StartTime: s.Start, EndTime: s.End})
	}

	return &DetailResponse{
		Date:           day.Date.Format(domain.DateFormat),
		TotalSlots:     domain.MaxSlotsPerDay,
		AvailableSlots: day.Available(),
		Slots:          slots,
	}
}
