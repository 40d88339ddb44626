package add_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgSuccess            = "Slot added successfully!"
	msgDuplicate          = "Slot already exists!"
	msgCapacity           = "No available slots left for the given date."
	msgConflict           = "Slot data was modified concurrently, retry the request."
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

// Handle POST /api/v1/slot/add
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var body handlers.SlotBody
	if err := handlers.DecodeJSON(r, &body); err != nil {
		h.logger.Warn("POST /slot/add - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	req, err := body.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /slot/add - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	if err := h.service.AddSlot(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, slots.ErrValidation):
			h.logger.Warn("POST /slot/add - Validation failed: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, slots.ErrDuplicate):
			h.logger.Warn("POST /slot/add - Duplicate slot: user_id=%s, date=%s, start=%s",
				body.UserID, body.Date, body.Slot.StartTime)
			handlers.RespondBadRequest(w, msgDuplicate)

		case errors.Is(err, slots.ErrCapacity):
			h.logger.Warn("POST /slot/add - Day is full: user_id=%s, date=%s", body.UserID, body.Date)
			handlers.RespondBadRequest(w, msgCapacity)

		case errors.Is(err, slots.ErrConflict):
			h.logger.Warn("POST /slot/add - Conflict: user_id=%s, date=%s, error=%v", body.UserID, body.Date, err)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, slots.ErrStorageUnavailable):
			h.logger.Error("POST /slot/add - Storage unavailable: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("POST /slot/add - Failed to add slot: user_id=%s, error=%v", body.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slot/add - Slot added: user_id=%s, date=%s, slot=%s-%s",
		body.UserID, body.Date, req.Slot.StartTime, req.Slot.EndTime)
	handlers.RespondMessage(w, msgSuccess)
}
