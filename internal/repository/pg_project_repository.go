package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/folio/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, title, description, tags, image_url, COALESCE(image_public_id, ''),
	COALESCE(live_url, ''), COALESCE(repo_url, ''), featured, created_at, updated_at`

// PgProjectRepository is the PostgreSQL implementation of ProjectRepository.
type PgProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPgProjectRepository creates a PgProjectRepository.
func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

var _ ProjectRepository = (*PgProjectRepository)(nil)

// List returns projects matching filter, featured first then newest first.
func (r *PgProjectRepository) List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error) {
	var conditions []string
	var args []any

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		args = append(args, tag)
		conditions = append(conditions, "EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = lower($1))")
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "featured")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects `+where+` ORDER BY featured DESC, created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetByID returns the project or ErrNotFound.
func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts the project, assigning ID and timestamps.
func (r *PgProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Tags == nil {
		project.Tags = []string{}
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO projects (id, title, description, tags, image_url, image_public_id, live_url, repo_url, featured)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
		 RETURNING created_at, updated_at`,
		project.ID, project.Title, project.Description, project.Tags, project.ImageURL,
		project.ImagePublicID, project.LiveURL, project.RepoURL, project.Featured,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
}

// Update overwrites every stored field of the project. Returns ErrNotFound
// when the id does not exist.
func (r *PgProjectRepository) Update(ctx context.Context, project *model.Project) error {
	if project.Tags == nil {
		project.Tags = []string{}
	}
	err := r.pool.QueryRow(ctx,
		`UPDATE projects SET title = $2, description = $3, tags = $4, image_url = $5,
		   image_public_id = NULLIF($6, ''), live_url = NULLIF($7, ''), repo_url = NULLIF($8, ''),
		   featured = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		project.ID, project.Title, project.Description, project.Tags, project.ImageURL,
		project.ImagePublicID, project.LiveURL, project.RepoURL, project.Featured,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes the project row. Returns ErrNotFound when nothing was deleted.
func (r *PgProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Tags, &p.ImageURL, &p.ImagePublicID,
		&p.LiveURL, &p.RepoURL, &p.Featured, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
