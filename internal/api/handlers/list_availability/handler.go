package list_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
)

const (
	msgMissingParams = "user_id and start_date are required"
	msgNotFound      = "No slots found in the given range."
	msgUnavailable   = "storage is temporarily unavailable"
)

type Handler struct {
	service    SlotService
	logger     Logger
	requireEnd bool
	route      string
}

// NewHandler обработчик GET /slots (end_date опционален)
func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		route:   "GET /slots",
	}
}

// NewTotalHandler обработчик GET /slots/total (end_date обязателен)
func NewTotalHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		requireEnd: true,
		route:      "GET /slots/total",
	}
}

// Handle GET /api/v1/slots и GET /api/v1/slots/total
// Query params: user_id, start_date (YYYY-MM-DD), end_date (YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := Query{
		UserID:    values.Get("user_id"),
		StartDate: values.Get("start_date"),
		EndDate:   values.Get("end_date"),
	}

	if err := handlers.Validate(query); err != nil {
		h.logger.Warn("%s - Missing query params: %v", h.route, err)
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	req, err := query.ToServiceRequest(h.requireEnd)
	if err != nil {
		h.logger.Warn("%s - Invalid query params: %v", h.route, err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	result, err := h.service.ListAvailability(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrValidation):
			h.logger.Warn("%s - Validation failed: user_id=%s, error=%v", h.route, query.UserID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, slots.ErrNoData):
			h.logger.Warn("%s - No data: user_id=%s", h.route, query.UserID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, slots.ErrStorageUnavailable):
			h.logger.Error("%s - Storage unavailable: user_id=%s, error=%v", h.route, query.UserID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("%s - Failed to list availability: user_id=%s, error=%v", h.route, query.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Availability retrieved: user_id=%s, days=%d", h.route, query.UserID, len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}
