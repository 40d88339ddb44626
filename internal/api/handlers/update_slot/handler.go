package update_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgSuccess            = "Slot updated successfully."
	msgNotFound           = "Slot data not found for the given date."
	msgUnavailable        = "storage is temporarily unavailable"
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

// Handle PUT /api/v1/slot/update
// Слот ищется по start_time, end_time заменяется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var body handlers.SlotBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		h.logger.Warn("PUT /slot/update - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	req, err := body.ToServiceRequest()
	if err != nil {
		h.logger.Warn("PUT /slot/update - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	if err := h.service.UpdateSlot(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, slots.ErrValidation):
			h.logger.Warn("PUT /slot/update - Validation failed: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, slots.ErrNoData):
			h.logger.Warn("PUT /slot/update - Not found: user_id=%s, date=%s, start=%s",
				body.UserID, body.Date, body.Slot.StartTime)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, slots.ErrStorageUnavailable):
			h.logger.Error("PUT /slot/update - Storage unavailable: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("PUT /slot/update - Failed to update slot: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /slot/update - Slot updated: user_id=%s, date=%s, slot=%s-%s",
		body.UserID, body.Date, req.Slot.StartTime, req.Slot.EndTime)
	handlers.RespondMessage(w, msgSuccess)
}
