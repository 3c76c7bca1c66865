package service

import (
	"context"
	"io"

	"github.com/folio/backend/internal/model"
)

// ImageUpload is an image file supplied with a create or update.
type ImageUpload struct {
	Data        io.Reader
	ContentType string
	Filename    string
}

// ProjectChange is the admin input for a create or update.
type ProjectChange struct {
	Input model.ProjectInput
	Image *ImageUpload
	// RemoveImage resets an update to the placeholder. Ignored when Image is set.
	RemoveImage bool
}

// ProjectService is the project catalogue plus its image lifecycle.
type ProjectService interface {
	List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, change ProjectChange) (*model.Project, error)
	Update(ctx context.Context, id string, change ProjectChange) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}
