package handler

import (
	"log/slog"
	"net/http"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

// SubmissionHandler serves the admin inbox API. Routes are expected to sit
// behind auth.Verifier.RequireAdmin.
type SubmissionHandler struct {
	submissions service.SubmissionService
	logger      *slog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(submissions service.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger.With("component", "submissions")}
}

type updateSubmissionRequest struct {
	ID      string                  `json:"id"`
	Updates *model.SubmissionUpdate `json:"updates"`
}

type deleteSubmissionsRequest struct {
	IDs []string `json:"ids"`
}

// List handles GET /api/submissions.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list submissions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Update handles PUT /api/submissions with {id, updates}.
func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidJSON(w, err)
		return
	}
	var upd model.SubmissionUpdate
	if req.Updates != nil {
		upd = *req.Updates
	}
	if err := h.submissions.Update(r.Context(), req.ID, upd); err != nil {
		writeServiceError(w, r, h.logger, err, "update submission")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Delete handles DELETE /api/submissions with {ids}.
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteSubmissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidJSON(w, err)
		return
	}
	if err := h.submissions.Delete(r.Context(), req.IDs); err != nil {
		writeServiceError(w, r, h.logger, err, "delete submissions")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
