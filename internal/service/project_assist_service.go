package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio/backend/pkg/ai"
)

// DescribeInput is what the admin knows about a project before writing it up.
type DescribeInput struct {
	Title string   `json:"title" validate:"required,max=200"`
	Tags  []string `json:"tags" validate:"max=30,dive,max=50"`
	Notes string   `json:"notes" validate:"max=4000"`
}

// ProjectAssistService drafts project descriptions.
type ProjectAssistService interface {
	Describe(ctx context.Context, in DescribeInput) (string, error)
}

type projectAssistImpl struct {
	client ai.Client
}

// NewProjectAssistService creates a ProjectAssistService. A nil client makes
// every call return ErrAINotConfigured.
func NewProjectAssistService(client ai.Client) ProjectAssistService {
	return &projectAssistImpl{client: client}
}

func (s *projectAssistImpl) Describe(ctx context.Context, in DescribeInput) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateStruct(in); err != nil {
		return "", err
	}
	if s.client == nil {
		return "", ErrAINotConfigured
	}

	var b strings.Builder
	b.WriteString("Write a concise portfolio description (2-4 sentences, Markdown allowed, no headings) ")
	b.WriteString("for the following software project.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	if len(in.Tags) > 0 {
		fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(in.Tags, ", "))
	}
	if in.Notes != "" {
		fmt.Fprintf(&b, "Notes from the author:\n%s\n", in.Notes)
	}

	out, err := s.client.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("describe project: %w", err)
	}
	return strings.TrimSpace(out), nil
}
