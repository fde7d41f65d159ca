// Package api exposes HTTP handlers for the workout service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/workouts/internal/auth"
	"example.com/workouts/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts/templates", h.templates)
	mux.HandleFunc("/v1/workouts/posts", h.posts)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTemplate(w, r)
	case http.MethodGet:
		h.listTemplates(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) posts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createPost(w, r)
	case http.MethodGet:
		h.listPosts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	template, err := h.service.CreateTemplate(r.Context(), identity.UserID, domain.CreateTemplateInput{
		Title:           req.Title,
		Description:     req.Description,
		Intensity:       domain.Intensity(req.Intensity),
		DurationSeconds: req.DurationSeconds,
		Exercises:       toExerciseInputs(req.Exercises),
		Tags:            req.Tags,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateView(*template))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	templates, err := h.service.ListTemplates(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]TemplateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, toTemplateView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	input := domain.CreatePostInput{
		TemplateID:      req.TemplateID,
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		DurationSeconds: req.DurationSeconds,
		Exercises:       toExerciseInputs(req.Exercises),
		Tags:            req.Tags,
	}
	if req.Intensity != nil {
		intensity := domain.Intensity(*req.Intensity)
		input.Intensity = &intensity
	}
	for _, m := range req.Media {
		input.Media = append(input.Media, domain.MediaInput{URL: m.URL, Type: m.Type, SizeBytes: m.SizeBytes})
	}

	post, err := h.service.CreatePost(r.Context(), identity.UserID, input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toPostView(*post))
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}

	result, err := h.service.ListPosts(r.Context(), identity.UserID, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]PostView, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, toPostView(p))
	}

	writeJSON(w, http.StatusOK, ListPostsResponse{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// ExerciseRequest is the shared exercise payload for templates and posts.
// CompletedSets is only persisted on posts.
type ExerciseRequest struct {
	Name          string   `json:"name"`
	OrderIndex    *int     `json:"order_index,omitempty"`
	Sets          *int     `json:"sets,omitempty"`
	Reps          *int     `json:"reps,omitempty"`
	RestSeconds   *int     `json:"rest_seconds,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	RPE           *float64 `json:"rpe,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	CompletedSets *int     `json:"completed_sets,omitempty"`
}

func (e ExerciseRequest) validate(position int) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("exercises[%d].name is required", position)
	}
	if e.OrderIndex != nil && *e.OrderIndex < 0 {
		return fmt.Errorf("exercises[%d].order_index must be >= 0", position)
	}
	return nil
}

// MediaRequest is one attachment in a create-post payload.
type MediaRequest struct {
	URL       string `json:"url"`
	Type      string `json:"type"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
}

// CreateTemplateRequest is the payload for POST /v1/workouts/templates.
type CreateTemplateRequest struct {
	Title           string            `json:"title"`
	Description     *string           `json:"description,omitempty"`
	Intensity       string            `json:"intensity"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
	Exercises       []ExerciseRequest `json:"exercises,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

// Validate ensures request correctness.
func (r CreateTemplateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if !domain.Intensity(r.Intensity).Valid() {
		return errors.New("intensity must be LOW, MEDIUM, or HIGH")
	}
	if r.DurationSeconds != nil && *r.DurationSeconds < 0 {
		return errors.New("duration_seconds must be >= 0")
	}
	for idx, e := range r.Exercises {
		if err := e.validate(idx); err != nil {
			return err
		}
	}
	for idx, tag := range r.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags[%d] must not be empty", idx)
		}
	}
	return nil
}

// CreatePostRequest is the payload for POST /v1/workouts/posts.
type CreatePostRequest struct {
	TemplateID      *string           `json:"template_id,omitempty"`
	Title           *string           `json:"title,omitempty"`
	Description     *string           `json:"description,omitempty"`
	Date            *time.Time        `json:"date,omitempty"`
	Intensity       *string           `json:"intensity,omitempty"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
	Exercises       []ExerciseRequest `json:"exercises,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Media           []MediaRequest    `json:"media,omitempty"`
}

// Validate ensures request correctness.
func (r CreatePostRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title must not be empty when provided")
	}
	if r.Intensity != nil && !domain.Intensity(*r.Intensity).Valid() {
		return errors.New("intensity must be LOW, MEDIUM, or HIGH")
	}
	if r.DurationSeconds != nil && *r.DurationSeconds < 0 {
		return errors.New("duration_seconds must be >= 0")
	}
	for idx, e := range r.Exercises {
		if err := e.validate(idx); err != nil {
			return err
		}
	}
	for idx, tag := range r.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags[%d] must not be empty", idx)
		}
	}
	for idx, m := range r.Media {
		if strings.TrimSpace(m.URL) == "" {
			return fmt.Errorf("media[%d].url is required", idx)
		}
		if strings.TrimSpace(m.Type) == "" {
			return fmt.Errorf("media[%d].type is required", idx)
		}
	}
	return nil
}

// ExerciseView exposes one exercise row.
type ExerciseView struct {
	ExerciseID    string   `json:"exercise_id"`
	Name          string   `json:"name"`
	OrderIndex    int      `json:"order_index"`
	Sets          *int     `json:"sets,omitempty"`
	Reps          *int     `json:"reps,omitempty"`
	RestSeconds   *int     `json:"rest_seconds,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	RPE           *float64 `json:"rpe,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	CompletedSets *int     `json:"completed_sets,omitempty"`
}

// TagView exposes one tag.
type TagView struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

// MediaView exposes one media attachment.
type MediaView struct {
	MediaID   string `json:"media_id"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
}

// TemplateView exposes full details about a template.
type TemplateView struct {
	TemplateID      string         `json:"template_id"`
	UserID          string         `json:"user_id"`
	Title           string         `json:"title"`
	Description     *string        `json:"description,omitempty"`
	Intensity       string         `json:"intensity"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Exercises       []ExerciseView `json:"exercises"`
	Tags            []TagView      `json:"tags"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PostView exposes full details about a post.
type PostView struct {
	PostID          string         `json:"post_id"`
	UserID          string         `json:"user_id"`
	TemplateID      *string        `json:"template_id,omitempty"`
	Title           string         `json:"title"`
	Description     *string        `json:"description,omitempty"`
	Date            time.Time      `json:"date"`
	Intensity       string         `json:"intensity"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Exercises       []ExerciseView `json:"exercises"`
	Tags            []TagView      `json:"tags"`
	Media           []MediaView    `json:"media"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ListPostsResponse packages one page of posts.
type ListPostsResponse struct {
	Items    []PostView `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

func toExerciseInputs(reqs []ExerciseRequest) []domain.ExerciseInput {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]domain.ExerciseInput, 0, len(reqs))
	for _, e := range reqs {
		out = append(out, domain.ExerciseInput{
			Name:          e.Name,
			OrderIndex:    e.OrderIndex,
			Sets:          e.Sets,
			Reps:          e.Reps,
			RestSeconds:   e.RestSeconds,
			Weight:        e.Weight,
			RPE:           e.RPE,
			Notes:         e.Notes,
			CompletedSets: e.CompletedSets,
		})
	}
	return out
}

func toExerciseViews(exercises []domain.Exercise) []ExerciseView {
	out := make([]ExerciseView, 0, len(exercises))
	for _, e := range exercises {
		out = append(out, ExerciseView{
			ExerciseID:    e.ID,
			Name:          e.Name,
			OrderIndex:    e.OrderIndex,
			Sets:          e.Sets,
			Reps:          e.Reps,
			RestSeconds:   e.RestSeconds,
			Weight:        e.Weight,
			RPE:           e.RPE,
			Notes:         e.Notes,
			CompletedSets: e.CompletedSets,
		})
	}
	return out
}

func toTagViews(tags []domain.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagView{TagID: t.ID, Name: t.Name})
	}
	return out
}

func toTemplateView(t domain.Template) TemplateView {
	return TemplateView{
		TemplateID:      t.ID,
		UserID:          t.UserID,
		Title:           t.Title,
		Description:     t.Description,
		Intensity:       string(t.Intensity),
		DurationSeconds: t.DurationSeconds,
		Exercises:       toExerciseViews(t.Exercises),
		Tags:            toTagViews(t.Tags),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toPostView(p domain.Post) PostView {
	media := make([]MediaView, 0, len(p.Media))
	for _, m := range p.Media {
		media = append(media, MediaView{MediaID: m.ID, URL: m.URL, Type: m.Type, SizeBytes: m.SizeBytes})
	}
	return PostView{
		PostID:          p.ID,
		UserID:          p.UserID,
		TemplateID:      p.TemplateID,
		Title:           p.Title,
		Description:     p.Description,
		Date:            p.Date,
		Intensity:       string(p.Intensity),
		DurationSeconds: p.DurationSeconds,
		Exercises:       toExerciseViews(p.Exercises),
		Tags:            toTagViews(p.Tags),
		Media:           media,
		CreatedAt:       p.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
