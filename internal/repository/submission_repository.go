package repository

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/folio/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// SubmissionRepository defines the persistence interface for contact submissions.
// It is defined here (in repository) to avoid an import cycle with service.
type SubmissionRepository interface {
	Save(ctx context.Context, s *model.Submission) error
	List(ctx context.Context) ([]*model.Submission, error)
	Update(ctx context.Context, id string, upd model.SubmissionUpdate) error
	UpdateCategory(ctx context.Context, id string, category model.Category) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// PgSubmissionRepository is the PostgreSQL implementation of SubmissionRepository.
type PgSubmissionRepository struct {
	pool *pgxpool.Pool
	ids  *idGenerator
}

// NewPgSubmissionRepository creates a PgSubmissionRepository backed by the given pool.
func NewPgSubmissionRepository(pool *pgxpool.Pool) *PgSubmissionRepository {
	return &PgSubmissionRepository{pool: pool, ids: newIDGenerator()}
}

// Ensure PgSubmissionRepository implements SubmissionRepository at compile time.
var _ SubmissionRepository = (*PgSubmissionRepository)(nil)

// Save inserts a new submissions row. s.ID is assigned here (a monotonic
// ULID) and s.Timestamp is populated from the RETURNING clause.
func (r *PgSubmissionRepository) Save(ctx context.Context, s *model.Submission) error {
	if s.ID == "" {
		s.ID = r.ids.New()
	}
	if !s.Category.Valid() {
		s.Category = model.CategoryGeneral
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, name, email, message, category, is_read)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		s.ID, s.Name, s.Email, s.Message, string(s.Category), s.IsRead,
	).Scan(&s.Timestamp)
}

// List returns every submission, most recent first.
func (r *PgSubmissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, message, created_at, category, is_read
		 FROM submissions
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []*model.Submission{}
	for rows.Next() {
		var (
			s        model.Submission
			category string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Message, &s.Timestamp, &category, &s.IsRead); err != nil {
			return nil, err
		}
		s.Category = model.Category(category)
		submissions = append(submissions, &s)
	}
	return submissions, rows.Err()
}

// Update applies a partial update; fields left nil in upd are not touched.
// Returns ErrNotFound when id does not exist.
func (r *PgSubmissionRepository) Update(ctx context.Context, id string, upd model.SubmissionUpdate) error {
	if upd.Empty() {
		return nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET is_read = $2 WHERE id = $1`,
		id, *upd.IsRead,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCategory stores the categorizer's label. A submission is categorized
// at most once; a second call (or a call for a deleted row) returns ErrNotFound.
func (r *PgSubmissionRepository) UpdateCategory(ctx context.Context, id string, category model.Category) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category %q", category)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET category = $2, categorized_at = NOW()
		 WHERE id = $1 AND categorized_at IS NULL`,
		id, string(category),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBatch deletes all ids in one transaction. If any id is missing the
// transaction is rolled back, nothing is deleted and ErrNotFound is returned.
// ids must be free of duplicates.
func (r *PgSubmissionRepository) DeleteBatch(ctx context.Context, ids []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM submissions WHERE id = ANY($1)`, ids)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != int64(len(ids)) {
			return fmt.Errorf("deleted %d of %d submissions: %w", tag.RowsAffected(), len(ids), ErrNotFound)
		}
		return nil
	})
}

// idGenerator hands out ULIDs that sort in creation order within a process.
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}
