package handler

import (
	"log/slog"
	"net/http"

	"github.com/folio/backend/pkg/auth"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes bundles everything the HTTP surface is built from.
type Routes struct {
	Base        *Handler
	Verifier    *auth.Verifier
	Contact     *ContactHandler
	Submissions *SubmissionHandler
	Projects    *ProjectHandler
	// Uploads serves locally stored images under /uploads/. Nil when images
	// live on the remote host.
	Uploads http.Handler
	Logger  *slog.Logger
}

// NewRouter registers every route on a ServeMux and wraps it in the shared
// middleware chain.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()
	admin := func(fn http.HandlerFunc) http.Handler { return rt.Verifier.RequireAdmin(fn) }

	mux.HandleFunc("GET /api/health", rt.Base.Health)
	mux.HandleFunc("POST /api/contact", rt.Contact.Submit)

	mux.HandleFunc("GET /api/projects", rt.Projects.List)
	mux.HandleFunc("GET /api/projects/{id}", rt.Projects.Get)
	mux.Handle("POST /api/projects", admin(rt.Projects.Create))
	mux.Handle("POST /api/projects/describe", admin(rt.Projects.Describe))
	mux.Handle("PUT /api/projects/{id}", admin(rt.Projects.Update))
	mux.Handle("DELETE /api/projects/{id}", admin(rt.Projects.Delete))

	mux.Handle("GET /api/auth/session", rt.Verifier.RequireUser(http.HandlerFunc(Session)))

	mux.Handle("GET /api/submissions", admin(rt.Submissions.List))
	mux.Handle("PUT /api/submissions", admin(rt.Submissions.Update))
	mux.Handle("DELETE /api/submissions", admin(rt.Submissions.Delete))

	if rt.Uploads != nil {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", rt.Uploads))
	}

	var h http.Handler = mux
	h = rt.Base.CORS(h)
	h = SecurityHeaders(h)
	h = RequestLogger(rt.Logger)(h)
	h = chimiddleware.Recoverer(h)
	h = chimiddleware.RequestID(h)
	h = chimiddleware.RealIP(h)
	return h
}
