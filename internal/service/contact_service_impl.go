package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo        repository.SubmissionRepository
	categorizer Categorizer
	tasks       TaskDispatcher
	logger      *slog.Logger
}

// NewContactService creates a ContactService. Categorization runs on tasks.
func NewContactService(repo repository.SubmissionRepository, categorizer Categorizer, tasks TaskDispatcher, logger *slog.Logger) ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &contactServiceImpl{
		repo:        repo,
		categorizer: categorizer,
		tasks:       tasks,
		logger:      logger.With("component", "contact"),
	}
}

func (s *contactServiceImpl) Submit(ctx context.Context, in model.ContactInput) (*model.Submission, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	sub := &model.Submission{
		Name:     in.Name,
		Email:    in.Email,
		Message:  in.Message,
		Category: model.CategoryGeneral,
		IsRead:   false,
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	id, message := sub.ID, sub.Message
	s.tasks.Dispatch("categorize_submission", func(ctx context.Context) error {
		cat := s.categorizer.Categorize(ctx, message)
		if err := s.repo.UpdateCategory(ctx, id, cat); err != nil {
			return fmt.Errorf("patch category %q: %w", cat, err)
		}
		s.logger.InfoContext(ctx, "submission categorized", "submission_id", id, "category", string(cat))
		return nil
	}, "submission_id", id)

	return sub, nil
}
