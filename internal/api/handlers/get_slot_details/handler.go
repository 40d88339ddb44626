package get_slot_details

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
)

const (
	msgMissingParams = "user_id and date are required"
	msgNotFound      = "No slots found for the given date."
	msgUnavailable   = "storage is temporarily unavailable"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/slots/details
// Query params: user_id, date (YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := Query{
		UserID: r.URL.Query().Get("user_id"),
		Date:   r.URL.Query().Get("date"),
	}

	if err := handlers.Validate(query); err != nil {
		h.logger.Warn("GET /slots/details - Missing query params: %v", err)
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	req, err := query.ToServiceRequest()
	if err != nil {
		h.logger.Warn("GET /slots/details - Invalid date: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	detail, err := h.service.GetDetail(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrValidation):
			h.logger.Warn("GET /slots/details - Validation failed: user_id=%s, error=%v", query.UserID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, slots.ErrNoData):
			h.logger.Warn("GET /slots/details - No data: user_id=%s, date=%s", query.UserID, query.Date)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, slots.ErrStorageUnavailable):
			h.logger.Error("GET /slots/details - Storage unavailable: user_id=%s, error=%v", query.UserID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("GET /slots/details - Failed to get details: user_id=%s, date=%s, error=%v",
				query.UserID, query.Date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /slots/details - Details retrieved: user_id=%s, date=%s, slots=%d",
		query.UserID, query.Date, len(detail.Slots))
	handlers.RespondJSON(w, http.StatusOK, detail)
}
