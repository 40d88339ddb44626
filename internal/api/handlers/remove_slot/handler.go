package remove_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgSuccess            = "Slot removed successfully."
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

// Handle DELETE /api/v1/slot/remove
// Удаление несуществующего слота на существующую дату - успех
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var body handlers.SlotBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		h.logger.Warn("DELETE /slot/remove - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	req, err := body.ToServiceRequest()
	if err != nil {
		h.logger.Warn("DELETE /slot/remove - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	if err := h.service.RemoveSlot(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, slots.ErrValidation):
			h.logger.Warn("DELETE /slot/remove - Validation failed: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, slots.ErrNoData):
			h.logger.Warn("DELETE /slot/remove - Not found: user_id=%s, date=%s", body.UserID, body.Date)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, slots.ErrStorageUnavailable):
			h.logger.Error("DELETE /slot/remove - Storage unavailable: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("DELETE /slot/remove - Failed to remove slot: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /slot/remove - Slot removed: user_id=%s, date=%s, slot=%s-%s",
		body.UserID, body.Date, req.Slot.StartTime, req.Slot.EndTime)
	handlers.RespondMessage(w, msgSuccess)
}
