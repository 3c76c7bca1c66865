package service

import (
	"context"
	"io"
	"sync"

	"github.com/folio/backend/internal/background"
	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/storage"
)

// ---------------------------------------------------------------------------
// mockSubmissionRepository
// ---------------------------------------------------------------------------

type mockSubmissionRepository struct {
	saveFunc           func(ctx context.Context, s *model.Submission) error
	listFunc           func(ctx context.Context) ([]*model.Submission, error)
	updateFunc         func(ctx context.Context, id string, upd model.SubmissionUpdate) error
	updateCategoryFunc func(ctx context.Context, id string, category model.Category) error
	deleteBatchFunc    func(ctx context.Context, ids []string) error
}

func (m *mockSubmissionRepository) Save(ctx context.Context, s *model.Submission) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, s)
	}
	return nil
}

func (m *mockSubmissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockSubmissionRepository) Update(ctx context.Context, id string, upd model.SubmissionUpdate) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, upd)
	}
	return nil
}

func (m *mockSubmissionRepository) UpdateCategory(ctx context.Context, id string, category model.Category) error {
	if m.updateCategoryFunc != nil {
		return m.updateCategoryFunc(ctx, id, category)
	}
	return nil
}

func (m *mockSubmissionRepository) DeleteBatch(ctx context.Context, ids []string) error {
	if m.deleteBatchFunc != nil {
		return m.deleteBatchFunc(ctx, ids)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockProjectRepository
// ---------------------------------------------------------------------------

type mockProjectRepository struct {
	listFunc    func(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Project, error)
	createFunc  func(ctx context.Context, p *model.Project) error
	updateFunc  func(ctx context.Context, p *model.Project) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockProjectRepository) List(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockProjectRepository) Update(ctx context.Context, p *model.Project) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, p)
	}
	return nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockStorage records every call in order.
// ---------------------------------------------------------------------------

type mockStorage struct {
	mu         sync.Mutex
	calls      []string
	uploadFunc func(ctx context.Context, key string, data io.Reader, contentType string) (storage.Asset, error)
	deleteFunc func(ctx context.Context, publicID string) error
}

func (m *mockStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (storage.Asset, error) {
	m.record("upload:" + key)
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, key, data, contentType)
	}
	return storage.Asset{URL: "https://img.example/" + key, PublicID: key}, nil
}

func (m *mockStorage) Delete(ctx context.Context, publicID string) error {
	m.record("delete:" + publicID)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, publicID)
	}
	return nil
}

func (m *mockStorage) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockStorage) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// manualDispatcher queues tasks until the test runs them.
// ---------------------------------------------------------------------------

type queuedTask struct {
	name string
	fn   background.Func
}

type manualDispatcher struct {
	mu    sync.Mutex
	tasks []queuedTask
}

func (d *manualDispatcher) Dispatch(name string, fn background.Func, _ ...any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, queuedTask{name: name, fn: fn})
	return true
}

// RunAll runs queued tasks and returns their errors.
func (d *manualDispatcher) RunAll() []error {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()

	var errs []error
	for _, t := range tasks {
		errs = append(errs, t.fn(context.Background()))
	}
	return errs
}

func (d *manualDispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// ---------------------------------------------------------------------------
// mockAIClient
// ---------------------------------------------------------------------------

type mockAIClient struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	prompts      []string
}

func (m *mockAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.generateFunc(ctx, prompt)
}

type fixedCategorizer model.Category

func (c fixedCategorizer) Categorize(context.Context, string) model.Category {
	return model.Category(c)
}
