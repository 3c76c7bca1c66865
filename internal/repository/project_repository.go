package repository

import (
	"context"

	"github.com/folio/backend/internal/model"
)

// ProjectRepository is the persistence interface for portfolio projects.
type ProjectRepository interface {
	List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}
