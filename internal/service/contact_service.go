package service

import (
	"context"

	"github.com/folio/backend/internal/model"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates and stores a new submission with the General category
	// and schedules its categorization. It returns once the row is stored.
	Submit(ctx context.Context, in model.ContactInput) (*model.Submission, error)
}
