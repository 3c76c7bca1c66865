package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/folio/backend/internal/markdown"
	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/storage"
)

const (
	summaryLength = 180
	imageDir      = "projects"
)

// ProjectServiceImpl implements ProjectService.
type ProjectServiceImpl struct {
	repo        repository.ProjectRepository
	images      storage.Storage
	tasks       TaskDispatcher
	placeholder string
	logger      *slog.Logger
}

// NewProjectService creates a ProjectServiceImpl.
func NewProjectService(repo repository.ProjectRepository, images storage.Storage, tasks TaskDispatcher, placeholderURL string, logger *slog.Logger) *ProjectServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectServiceImpl{
		repo:        repo,
		images:      images,
		tasks:       tasks,
		placeholder: placeholderURL,
		logger:      logger.With("component", "projects"),
	}
}

var _ ProjectService = (*ProjectServiceImpl)(nil)

func (s *ProjectServiceImpl) List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error) {
	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	for _, p := range projects {
		withSummary(p)
	}
	return projects, nil
}

func (s *ProjectServiceImpl) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return withSummary(p), nil
}

// Create uploads the image (if any) and then inserts the project. A failed
// insert leaves the upload orphaned; its public id is logged.
func (s *ProjectServiceImpl) Create(ctx context.Context, change ProjectChange) (*model.Project, error) {
	in, err := normalizeProjectInput(change.Input)
	if err != nil {
		return nil, err
	}

	p := &model.Project{ImageURL: s.placeholder}
	applyInput(p, in)

	if change.Image != nil {
		asset, err := s.upload(ctx, change.Image)
		if err != nil {
			return nil, err
		}
		p.ImageURL, p.ImagePublicID = asset.URL, asset.PublicID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logOrphan(ctx, p.ImagePublicID, err)
		return nil, fmt.Errorf("create project: %w", err)
	}
	return withSummary(p), nil
}

// Update writes the new fields and image. A replaced uploaded image is
// deleted only after the write succeeded.
func (s *ProjectServiceImpl) Update(ctx context.Context, id string, change ProjectChange) (*model.Project, error) {
	in, err := normalizeProjectInput(change.Input)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	applyInput(&updated, in)

	switch {
	case change.Image != nil:
		asset, err := s.upload(ctx, change.Image)
		if err != nil {
			return nil, err
		}
		updated.ImageURL, updated.ImagePublicID = asset.URL, asset.PublicID
	case change.RemoveImage:
		updated.ImageURL, updated.ImagePublicID = s.placeholder, ""
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if updated.ImagePublicID != existing.ImagePublicID {
			s.logOrphan(ctx, updated.ImagePublicID, err)
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	if existing.HasUploadedImage() && existing.ImagePublicID != updated.ImagePublicID {
		s.deleteImageLater(existing.ID, existing.ImagePublicID)
	}
	return withSummary(&updated), nil
}

// Delete removes the hosted image on a best-effort basis, then the record.
func (s *ProjectServiceImpl) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.HasUploadedImage() {
		if err := s.images.Delete(ctx, existing.ImagePublicID); err != nil {
			s.logger.WarnContext(ctx, "image delete failed, deleting project anyway",
				"project_id", id, "public_id", existing.ImagePublicID, "error", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProjectServiceImpl) upload(ctx context.Context, img *ImageUpload) (storage.Asset, error) {
	key, ok := storage.NewKey(imageDir, img.ContentType)
	if !ok {
		return storage.Asset{}, invalid("image", "must be a JPEG, PNG, WebP or GIF image")
	}
	asset, err := s.images.Upload(ctx, key, img.Data, img.ContentType)
	if errors.Is(err, storage.ErrNotConfigured) {
		return storage.Asset{}, ErrImagesDisabled
	}
	if err != nil {
		return storage.Asset{}, fmt.Errorf("upload image: %w", err)
	}
	return asset, nil
}

func (s *ProjectServiceImpl) deleteImageLater(projectID, publicID string) {
	s.tasks.Dispatch("delete_replaced_image", func(ctx context.Context) error {
		return s.images.Delete(ctx, publicID)
	}, "project_id", projectID, "public_id", publicID)
}

func (s *ProjectServiceImpl) logOrphan(ctx context.Context, publicID string, cause error) {
	if publicID == "" {
		return
	}
	s.logger.ErrorContext(ctx, "project write failed, uploaded image left orphaned",
		"public_id", publicID, "error", cause)
}

func normalizeProjectInput(in model.ProjectInput) (model.ProjectInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.LiveURL = strings.TrimSpace(in.LiveURL)
	in.RepoURL = strings.TrimSpace(in.RepoURL)

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]struct{}, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, t)
	}
	in.Tags = tags

	if err := validateStruct(in); err != nil {
		return in, err
	}
	return in, nil
}

func applyInput(p *model.Project, in model.ProjectInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Tags = in.Tags
	p.LiveURL = in.LiveURL
	p.RepoURL = in.RepoURL
	p.Featured = in.Featured
}

func withSummary(p *model.Project) *model.Project {
	p.Summary = markdown.Excerpt(p.Description, summaryLength)
	return p
}
