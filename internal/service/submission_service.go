package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
)

// maxDeleteBatch bounds a single DELETE /api/submissions request.
const maxDeleteBatch = 500

// SubmissionService is the admin-facing inbox API.
type SubmissionService interface {
	// List returns every submission, most recent first.
	List(ctx context.Context) ([]*model.Submission, error)
	// Update applies a partial update to one submission.
	Update(ctx context.Context, id string, upd model.SubmissionUpdate) error
	// Delete removes all ids atomically.
	Delete(ctx context.Context, ids []string) error
}

type submissionServiceImpl struct {
	repo repository.SubmissionRepository
}

// NewSubmissionService creates a SubmissionService backed by the given repository.
func NewSubmissionService(repo repository.SubmissionRepository) SubmissionService {
	return &submissionServiceImpl{repo: repo}
}

func (s *submissionServiceImpl) List(ctx context.Context) ([]*model.Submission, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*model.Submission{}
	}
	return subs, nil
}

func (s *submissionServiceImpl) Update(ctx context.Context, id string, upd model.SubmissionUpdate) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("id", "is required")
	}
	if upd.Empty() {
		return invalid("updates", "must contain at least one field")
	}
	return s.repo.Update(ctx, id, upd)
}

// Delete rejects an empty list and blank ids; duplicates are collapsed
// before the batch reaches the store.
func (s *submissionServiceImpl) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalid("ids", "must contain at least one id")
	}
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return invalid(fmt.Sprintf("ids[%d]", i), "must not be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) > maxDeleteBatch {
		return invalid("ids", fmt.Sprintf("must contain at most %d ids", maxDeleteBatch))
	}
	return s.repo.DeleteBatch(ctx, unique)
}
