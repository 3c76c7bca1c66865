package handler

import (
	"bufio"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

const (
	maxImageSize     = 5 << 20 // 5 MB
	maxMultipartBody = maxImageSize + 1<<20
)

// ProjectHandler serves the public project catalogue and the admin CRUD
// endpoints.
type ProjectHandler struct {
	projects service.ProjectService
	assist   service.ProjectAssistService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler. assist may be nil, in which
// case Describe answers 503.
func NewProjectHandler(projects service.ProjectService, assist service.ProjectAssistService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, assist: assist, logger: logger.With("component", "projects")}
}

// List handles GET /api/projects. Supports ?tag= and ?featured=true.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProjectFilter{Tag: strings.TrimSpace(q.Get("tag"))}
	if f := q.Get("featured"); f != "" {
		featured, err := strconv.ParseBool(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "featured must be true or false")
			return
		}
		filter.FeaturedOnly = featured
	}

	projects, err := h.projects.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// Get handles GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /api/projects (admin).
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	change, done, ok := h.readChange(w, r)
	if !ok {
		return
	}
	defer done()
	p, err := h.projects.Create(r.Context(), change)
	if err != nil {
		h.writeProjectError(w, r, err, "create project")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/projects/{id} (admin).
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	change, done, ok := h.readChange(w, r)
	if !ok {
		return
	}
	defer done()
	p, err := h.projects.Update(r.Context(), r.PathValue("id"), change)
	if err != nil {
		h.writeProjectError(w, r, err, "update project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/projects/{id} (admin).
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err, "delete project")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type describeResponse struct {
	Description string `json:"description"`
}

// Describe handles POST /api/projects/describe (admin).
func (h *ProjectHandler) Describe(w http.ResponseWriter, r *http.Request) {
	if h.assist == nil {
		writeError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI assistance is not configured")
		return
	}
	var in service.DescribeInput
	if err := decodeJSON(w, r, &in); err != nil {
		invalidJSON(w, err)
		return
	}
	text, err := h.assist.Describe(r.Context(), in)
	switch {
	case errors.Is(err, service.ErrAINotConfigured):
		writeError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI assistance is not configured")
	case err != nil:
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeServiceError(w, r, h.logger, err, "describe project")
			return
		}
		h.logger.WarnContext(r.Context(), "describe project failed", "error", err)
		writeError(w, http.StatusBadGateway, "ai_failed", "The AI service did not return a description")
	default:
		writeJSON(w, http.StatusOK, describeResponse{Description: text})
	}
}

func (h *ProjectHandler) writeProjectError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, service.ErrImagesDisabled) {
		writeError(w, http.StatusServiceUnavailable, "images_disabled", "Image uploads are not configured")
		return
	}
	writeServiceError(w, r, h.logger, err, op)
}

// projectJSON is the JSON form of a create or update. Images require
// multipart.
type projectJSON struct {
	model.ProjectInput
	RemoveImage bool `json:"removeImage"`
}

func noop() {}

// readChange parses either a JSON body or a multipart form. It writes the
// error response itself and reports whether parsing succeeded. done
// releases the uploaded file.
func (h *ProjectHandler) readChange(w http.ResponseWriter, r *http.Request) (change service.ProjectChange, done func(), ok bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body projectJSON
		if err := decodeJSON(w, r, &body); err != nil {
			invalidJSON(w, err)
			return service.ProjectChange{}, noop, false
		}
		return service.ProjectChange{Input: body.ProjectInput, RemoveImage: body.RemoveImage}, noop, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "Image must be 5 MB or smaller")
		} else {
			writeError(w, http.StatusBadRequest, "invalid_form", "Malformed multipart form")
		}
		return service.ProjectChange{}, noop, false
	}

	form := r.MultipartForm.Value
	change = service.ProjectChange{
		Input: model.ProjectInput{
			Title:       firstValue(form, "title"),
			Description: firstValue(form, "description"),
			Tags:        formTags(form["tags"]),
			LiveURL:     firstValue(form, "liveUrl"),
			RepoURL:     firstValue(form, "repoUrl"),
		},
	}
	var err error
	if change.Input.Featured, err = formBool(form, "featured"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "featured must be true or false")
		return service.ProjectChange{}, noop, false
	}
	if change.RemoveImage, err = formBool(form, "removeImage"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "removeImage must be true or false")
		return service.ProjectChange{}, noop, false
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return change, noop, true
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_form", "Could not read the image")
		return service.ProjectChange{}, noop, false
	}
	if header.Size > maxImageSize {
		_ = file.Close()
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "Image must be 5 MB or smaller")
		return service.ProjectChange{}, noop, false
	}

	// The declared type is not trusted; sniff the leading bytes instead.
	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	change.Image = &service.ImageUpload{
		Data:        br,
		ContentType: http.DetectContentType(head),
		Filename:    header.Filename,
	}
	return change, func() { _ = file.Close() }, true
}

func firstValue(form map[string][]string, key string) string {
	if v := form[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formTags accepts repeated fields and comma-separated values.
func formTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func formBool(form map[string][]string, key string) (bool, error) {
	v := strings.TrimSpace(firstValue(form, key))
	if v == "" {
		return false, nil
	}
	if v == "on" {
		return true, nil
	}
	return strconv.ParseBool(v)
}
