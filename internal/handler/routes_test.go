package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/folio/backend/internal/background"
	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/service"
	"github.com/folio/backend/pkg/ai"
	"github.com/folio/backend/pkg/auth"
	"github.com/folio/backend/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSubmissions is an in-memory SubmissionRepository with the same
// ordering and atomicity rules as the PostgreSQL one.
type memSubmissions struct {
	mu          sync.Mutex
	seq         int
	rows        map[string]*model.Submission
	categorized map[string]bool
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{rows: map[string]*model.Submission{}, categorized: map[string]bool{}}
}

func (m *memSubmissions) Save(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s.ID = fmt.Sprintf("sub-%03d", m.seq)
	s.Timestamp = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSubmissions) List(context.Context) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Submission, 0, len(m.rows))
	for _, s := range m.rows {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memSubmissions) Update(_ context.Context, id string, upd model.SubmissionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.IsRead != nil {
		s.IsRead = *upd.IsRead
	}
	return nil
}

func (m *memSubmissions) UpdateCategory(_ context.Context, id string, c model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || m.categorized[id] {
		return repository.ErrNotFound
	}
	s.Category = c
	m.categorized[id] = true
	return nil
}

func (m *memSubmissions) DeleteBatch(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.rows[id]; !ok {
			return repository.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

type stack struct {
	router   http.Handler
	repo     *memSubmissions
	tasks    *background.Dispatcher
	ids      *identity.Provider
	adminTok string
	userTok  string
	release  chan struct{}
}

// newStack wires real services over in-memory state. The fake model
// server blocks until release is closed and then answers "Job Inquiry".
func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()
	release := make(chan struct{})

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Job Inquiry"}]}}]}`))
	}))
	t.Cleanup(llm.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	ids, err := identity.NewProvider(identity.Config{
		SigningKey: "test-signing-key-0123456789abcdef",
		Issuer:     "folio-test",
		Audience:   "folio",
	}, identity.NewMemoryAccountStore())
	require.NoError(t, err)

	_, err = ids.EnsureAccount(ctx, "owner", "owner@example.com")
	require.NoError(t, err)
	require.NoError(t, ids.SetCustomUserClaims(ctx, "owner", map[string]any{identity.AdminClaim: true}))
	_, err = ids.EnsureAccount(ctx, "visitor", "visitor@example.com")
	require.NoError(t, err)

	adminTok, err := ids.MintIDToken(ctx, "owner", time.Hour)
	require.NoError(t, err)
	userTok, err := ids.MintIDToken(ctx, "visitor", time.Hour)
	require.NoError(t, err)

	tasks := background.New(background.Options{Workers: 2, QueueSize: 8, TaskTimeout: 5 * time.Second}, logger)
	repo := newMemSubmissions()
	categorizer := service.NewCategorizer(ai.NewGeminiClient(ai.Options{APIKey: "k", Model: "m", BaseURL: llm.URL}), logger)

	router := NewRouter(Routes{
		Base:        New(&mockDB{}, "http://localhost:3000"),
		Verifier:    auth.NewVerifier(ids, logger),
		Contact:     NewContactHandler(service.NewContactService(repo, categorizer, tasks, logger), logger),
		Submissions: NewSubmissionHandler(service.NewSubmissionService(repo), logger),
		Projects:    NewProjectHandler(&mockProjectService{}, nil, logger),
		Logger:      logger,
	})
	return &stack{router: router, repo: repo, tasks: tasks, ids: ids, adminTok: adminTok, userTok: userTok, release: release}
}

func (s *stack) drain(t *testing.T) {
	t.Helper()
	select {
	case <-s.release:
	default:
		close(s.release)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.tasks.Shutdown(ctx))
}

func listSubmissions(t *testing.T, h http.Handler, token string) []model.Submission {
	t.Helper()
	rec := doRequest(h, http.MethodGet, "/api/submissions", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var subs []model.Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&subs))
	return subs
}

func TestEndToEnd_ContactIsCategorizedAndListedFirst(t *testing.T) {
	s := newStack(t)

	// an older message so ordering is observable
	require.NoError(t, s.repo.Save(context.Background(), &model.Submission{
		Name: "Earlier", Email: "e@x.com", Message: "Great site, well done!", Category: model.CategoryGeneral,
	}))

	start := time.Now()
	rec := doRequest(s.router, http.MethodPost, "/api/contact", "",
		`{"name":"Jo Lee","email":"jo@x.com","message":"I'd like to hire you for a freelance gig"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Less(t, time.Since(start), 2*time.Second, "response must not wait for categorization")

	var created successResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.True(t, created.Success)

	// the model call is still blocked: stored as General and unread
	subs := listSubmissions(t, s.router, s.adminTok)
	require.Len(t, subs, 2)
	assert.Equal(t, created.ID, subs[0].ID)
	assert.Equal(t, model.CategoryGeneral, subs[0].Category)
	assert.False(t, subs[0].IsRead)

	s.drain(t)

	subs = listSubmissions(t, s.router, s.adminTok)
	require.Len(t, subs, 2)
	assert.Equal(t, "Jo Lee", subs[0].Name)
	assert.Equal(t, model.CategoryJobInquiry, subs[0].Category)
	assert.Equal(t, model.CategoryGeneral, subs[1].Category)
}

func TestEndToEnd_DeleteWithMissingIDIsAtomic(t *testing.T) {
	s := newStack(t)
	defer s.drain(t)
	require.NoError(t, s.repo.Save(context.Background(), &model.Submission{Name: "A", Email: "a@x.com", Message: "first message here", Category: model.CategoryGeneral}))
	a := listSubmissions(t, s.router, s.adminTok)[0].ID

	rec := doRequest(s.router, http.MethodDelete, "/api/submissions", s.adminTok, fmt.Sprintf(`{"ids":[%q,"b"]}`, a))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, listSubmissions(t, s.router, s.adminTok), 1, "no partial delete")

	rec = doRequest(s.router, http.MethodDelete, "/api/submissions", s.adminTok, fmt.Sprintf(`{"ids":[%q,%q]}`, a, a))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listSubmissions(t, s.router, s.adminTok))
}

func TestEndToEnd_MarkRead(t *testing.T) {
	s := newStack(t)
	defer s.drain(t)
	require.NoError(t, s.repo.Save(context.Background(), &model.Submission{Name: "A", Email: "a@x.com", Message: "first message here", Category: model.CategoryGeneral}))
	id := listSubmissions(t, s.router, s.adminTok)[0].ID

	rec := doRequest(s.router, http.MethodPut, "/api/submissions", s.adminTok, fmt.Sprintf(`{"id":%q,"updates":{"isRead":true}}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	got := listSubmissions(t, s.router, s.adminTok)[0]
	assert.True(t, got.IsRead)
	assert.Equal(t, "first message here", got.Message)
}

func TestEndToEnd_TokenStates(t *testing.T) {
	s := newStack(t)
	defer s.drain(t)
	ctx := context.Background()

	rec := doRequest(s.router, http.MethodGet, "/api/submissions", s.userTok, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, s.ids.RevokeRefreshTokens(ctx, "owner"))
	rec = doRequest(s.router, http.MethodGet, "/api/submissions", s.adminTok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.CodeTokenRevoked, decodeError(t, rec).Error)

	require.NoError(t, s.ids.SetDisabled(ctx, "visitor", true))
	rec = doRequest(s.router, http.MethodGet, "/api/auth/session", s.userTok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.CodeAccountDisabled, decodeError(t, rec).Error)
}

func TestRouter_UnknownRouteAndHealth(t *testing.T) {
	tr := &testRouter{}
	h := tr.handler()

	rec := doRequest(h, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))

	rec = doRequest(h, http.MethodPatch, "/api/submissions", "admin", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
