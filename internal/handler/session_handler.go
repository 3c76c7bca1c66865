package handler

import (
	"net/http"

	"github.com/folio/backend/pkg/auth"
)

type sessionResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
}

// Session handles GET /api/auth/session behind auth.Verifier.RequireUser.
// Clients read their authorization context from here once per session.
func Session(w http.ResponseWriter, r *http.Request) {
	tok, ok := auth.TokenFromContext(r.Context())
	if !ok {
		auth.WriteError(w, &auth.Error{Status: http.StatusUnauthorized, Code: auth.CodeMissingToken, Message: "Missing bearer token"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{UID: tok.UID, Email: tok.Email, Admin: tok.IsAdmin()})
}
