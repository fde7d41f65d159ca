package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/workouts/internal/auth"
	"example.com/workouts/internal/domain"
)

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := &auth.Identity{
		UserID:    "user-1",
		Email:     "user-1@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestCreateTemplateSuccess(t *testing.T) {
	repo := &stubRepo{}
	handler := NewHandler(domain.NewService(repo))

	body := `{
		"title": "Push Day",
		"intensity": "HIGH",
		"duration_seconds": 3600,
		"exercises": [
			{"name": "Bench Press", "sets": 4, "reps": 8},
			{"name": "Dips", "order_index": 5}
		],
		"tags": ["push", "chest"]
	}`

	rr := httptest.NewRecorder()
	handler.createTemplate(rr, authedRequest(http.MethodPost, "/v1/workouts/templates", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp TemplateView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "user-1" {
		t.Fatalf("expected owner user-1 got %s", resp.UserID)
	}
	if resp.Title != "Push Day" {
		t.Fatalf("unexpected title %s", resp.Title)
	}
	if len(resp.Exercises) != 2 {
		t.Fatalf("expected 2 exercises got %d", len(resp.Exercises))
	}
	if resp.Exercises[0].OrderIndex != 0 {
		t.Fatalf("expected defaulted order index 0 got %d", resp.Exercises[0].OrderIndex)
	}
	if resp.Exercises[1].OrderIndex != 5 {
		t.Fatalf("expected explicit order index 5 got %d", resp.Exercises[1].OrderIndex)
	}
	if len(repo.templateTagNames) != 2 {
		t.Fatalf("expected 2 tag names got %v", repo.templateTagNames)
	}
}

func TestCreateTemplateRejectsMissingTitle(t *testing.T) {
	handler := NewHandler(domain.NewService(&stubRepo{}))

	rr := httptest.NewRecorder()
	handler.createTemplate(rr, authedRequest(http.MethodPost, "/v1/workouts/templates", `{"intensity":"LOW"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateTemplateRejectsUnknownIntensity(t *testing.T) {
	handler := NewHandler(domain.NewService(&stubRepo{}))

	rr := httptest.NewRecorder()
	handler.createTemplate(rr, authedRequest(http.MethodPost, "/v1/workouts/templates", `{"title":"X","intensity":"EXTREME"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateTemplateRequiresIdentity(t *testing.T) {
	handler := NewHandler(domain.NewService(&stubRepo{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/workouts/templates", strings.NewReader(`{"title":"X","intensity":"LOW"}`))
	rr := httptest.NewRecorder()
	handler.createTemplate(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestListTemplatesReturnsOwnedTemplates(t *testing.T) {
	now := time.Date(2025, time.November, 3, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		templates: []domain.Template{
			{ID: "tpl-2", UserID: "user-1", Title: "Second", Intensity: domain.IntensityLow, CreatedAt: now, UpdatedAt: now},
			{ID: "tpl-1", UserID: "user-1", Title: "First", Intensity: domain.IntensityHigh, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)},
		},
	}
	handler := NewHandler(domain.NewService(repo))

	rr := httptest.NewRecorder()
	handler.listTemplates(rr, authedRequest(http.MethodGet, "/v1/workouts/templates", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []TemplateView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 templates got %d", len(resp))
	}
	if resp[0].TemplateID != "tpl-2" {
		t.Fatalf("expected most recently updated first, got %s", resp[0].TemplateID)
	}
}

func TestCreatePostFallsBackToLiteralDefaults(t *testing.T) {
	repo := &stubRepo{}
	handler := NewHandler(domain.NewService(repo))

	rr := httptest.NewRecorder()
	handler.createPost(rr, authedRequest(http.MethodPost, "/v1/workouts/posts", `{"template_id":"no-such-template"}`))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp PostView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Title != "Treino" {
		t.Fatalf("expected default title got %q", resp.Title)
	}
	if resp.Intensity != "MEDIUM" {
		t.Fatalf("expected default intensity got %q", resp.Intensity)
	}
}

func TestCreatePostRejectsMediaWithoutURL(t *testing.T) {
	handler := NewHandler(domain.NewService(&stubRepo{}))

	rr := httptest.NewRecorder()
	handler.createPost(rr, authedRequest(http.MethodPost, "/v1/workouts/posts", `{"media":[{"type":"image"}]}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestListPostsEchoesPagination(t *testing.T) {
	repo := &stubRepo{
		posts: []domain.Post{
			{ID: "post-6", UserID: "user-1", Title: "Treino", Intensity: domain.IntensityMedium, Date: time.Now().UTC()},
		},
		total: 11,
	}
	handler := NewHandler(domain.NewService(repo))

	rr := httptest.NewRecorder()
	handler.listPosts(rr, authedRequest(http.MethodGet, "/v1/workouts/posts?page=2&page_size=5", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ListPostsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Page != 2 || resp.PageSize != 5 {
		t.Fatalf("expected page 2/size 5 got %d/%d", resp.Page, resp.PageSize)
	}
	if resp.Total != 11 {
		t.Fatalf("expected total 11 got %d", resp.Total)
	}
	if repo.lastOffset != 5 {
		t.Fatalf("expected offset 5 got %d", repo.lastOffset)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(resp.Items))
	}
}

func TestListPostsIgnoresMalformedPagination(t *testing.T) {
	repo := &stubRepo{}
	handler := NewHandler(domain.NewService(repo))

	rr := httptest.NewRecorder()
	handler.listPosts(rr, authedRequest(http.MethodGet, "/v1/workouts/posts?page=abc&page_size=-3", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp ListPostsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Page != 1 || resp.PageSize != 10 {
		t.Fatalf("expected defaults 1/10 got %d/%d", resp.Page, resp.PageSize)
	}
}

type stubRepo struct {
	templates        []domain.Template
	templateTagNames []string
	posts            []domain.Post
	total            int
	lastOffset       int
	lastLimit        int
}

func (s *stubRepo) UpsertUser(context.Context, string) error { return nil }

func (s *stubRepo) CreateTemplate(_ context.Context, template domain.Template, tagNames []string) (*domain.Template, error) {
	s.templateTagNames = tagNames
	return &template, nil
}

func (s *stubRepo) FindTemplates(context.Context, string) ([]domain.Template, error) {
	return s.templates, nil
}

func (s *stubRepo) FindTemplateByID(context.Context, string) (*domain.Template, error) {
	return nil, nil
}

func (s *stubRepo) CreatePost(_ context.Context, post domain.Post, _ []string) (*domain.Post, error) {
	return &post, nil
}

func (s *stubRepo) FindPostsPage(_ context.Context, _ string, offset, limit int) ([]domain.Post, int, error) {
	s.lastOffset = offset
	s.lastLimit = limit
	return s.posts, s.total, nil
}
