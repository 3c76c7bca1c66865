package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
	"github.com/folio/backend/pkg/auth"
	"github.com/folio/backend/pkg/identity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSubmissionService struct {
	listFunc   func(ctx context.Context) ([]*model.Submission, error)
	updateFunc func(ctx context.Context, id string, upd model.SubmissionUpdate) error
	deleteFunc func(ctx context.Context, ids []string) error
	calls      int
}

func (m *mockSubmissionService) List(ctx context.Context) ([]*model.Submission, error) {
	m.calls++
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*model.Submission{}, nil
}

func (m *mockSubmissionService) Update(ctx context.Context, id string, upd model.SubmissionUpdate) error {
	m.calls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, upd)
	}
	return nil
}

func (m *mockSubmissionService) Delete(ctx context.Context, ids []string) error {
	m.calls++
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ids)
	}
	return nil
}

type mockContactService struct {
	submitFunc func(ctx context.Context, in model.ContactInput) (*model.Submission, error)
}

func (m *mockContactService) Submit(ctx context.Context, in model.ContactInput) (*model.Submission, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, in)
	}
	return &model.Submission{ID: "01J0000000000000000000000", Category: model.CategoryGeneral}, nil
}

type mockProjectService struct {
	listFunc   func(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error)
	getFunc    func(ctx context.Context, id string) (*model.Project, error)
	createFunc func(ctx context.Context, change service.ProjectChange) (*model.Project, error)
	updateFunc func(ctx context.Context, id string, change service.ProjectChange) (*model.Project, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockProjectService) List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*model.Project{}, nil
}

func (m *mockProjectService) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) Create(ctx context.Context, change service.ProjectChange) (*model.Project, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, change)
	}
	return &model.Project{ID: "p1", Title: change.Input.Title}, nil
}

func (m *mockProjectService) Update(ctx context.Context, id string, change service.ProjectChange) (*model.Project, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, change)
	}
	return &model.Project{ID: id, Title: change.Input.Title}, nil
}

func (m *mockProjectService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockAssistService struct {
	describeFunc func(ctx context.Context, in service.DescribeInput) (string, error)
}

func (m *mockAssistService) Describe(ctx context.Context, in service.DescribeInput) (string, error) {
	if m.describeFunc != nil {
		return m.describeFunc(ctx, in)
	}
	return "A project.", nil
}

// tokenTable maps raw bearer tokens to verification outcomes.
type tokenTable map[string]struct {
	tok *identity.Token
	err error
}

func (t tokenTable) VerifyIDTokenAndCheckRevoked(_ context.Context, raw string) (*identity.Token, error) {
	if e, ok := t[raw]; ok {
		return e.tok, e.err
	}
	return nil, identity.ErrIDTokenInvalid
}

func testVerifier() *auth.Verifier {
	return auth.NewVerifier(tokenTable{
		"admin": {tok: &identity.Token{UID: "admin-1", Email: "owner@example.com", Claims: map[string]any{"admin": true}}},
		"user":  {tok: &identity.Token{UID: "user-1", Email: "visitor@example.com", Claims: map[string]any{}}},
		"stale": {err: identity.ErrIDTokenExpired},
	}, discardLogger())
}

type testRouter struct {
	submissions *mockSubmissionService
	contact     *mockContactService
	projects    *mockProjectService
	assist      *mockAssistService
}

func (tr *testRouter) handler() http.Handler {
	if tr.submissions == nil {
		tr.submissions = &mockSubmissionService{}
	}
	if tr.contact == nil {
		tr.contact = &mockContactService{}
	}
	if tr.projects == nil {
		tr.projects = &mockProjectService{}
	}
	var assist service.ProjectAssistService
	if tr.assist != nil {
		assist = tr.assist
	}
	logger := discardLogger()
	return NewRouter(Routes{
		Base:        New(&mockDB{}, "http://localhost:3000"),
		Verifier:    testVerifier(),
		Contact:     NewContactHandler(tr.contact, logger),
		Submissions: NewSubmissionHandler(tr.submissions, logger),
		Projects:    NewProjectHandler(tr.projects, assist, logger),
		Logger:      logger,
	})
}
