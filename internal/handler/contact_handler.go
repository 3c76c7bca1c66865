package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

// ContactHandler handles public contact form submissions.
type ContactHandler struct {
	contactService service.ContactService
	logger         *slog.Logger
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, logger: logger.With("component", "contact")}
}

// Submit handles POST /api/contact.
// The response is sent once the submission is stored; categorization
// happens afterwards.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in model.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		invalidJSON(w, err)
		return
	}

	sub, err := h.contactService.Submit(r.Context(), in)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: ve.Message, Fields: ve.Fields})
			return
		}
		h.logger.ErrorContext(r.Context(), "contact submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submit_failed", "Your message could not be sent, please try again later")
		return
	}

	writeJSON(w, http.StatusCreated, successResponse{Success: true, ID: sub.ID})
}
