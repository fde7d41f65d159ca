// Package domain defines the business logic for the workout service.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultPostTitle is used when neither the request nor a resolved template
// supplies a title.
const DefaultPostTitle = "Treino"

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// Repository captures persistence operations.
type Repository interface {
	UpsertUser(ctx context.Context, userID string) error
	CreateTemplate(ctx context.Context, template Template, tagNames []string) (*Template, error)
	FindTemplates(ctx context.Context, userID string) ([]Template, error)
	FindTemplateByID(ctx context.Context, templateID string) (*Template, error)
	CreatePost(ctx context.Context, post Post, tagNames []string) (*Post, error)
	FindPostsPage(ctx context.Context, userID string, offset, limit int) ([]Post, int, error)
}

// Service orchestrates workout workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ExerciseInput captures one exercise entry from the API layer.
type ExerciseInput struct {
	Name          string
	OrderIndex    *int
	Sets          *int
	Reps          *int
	RestSeconds   *int
	Weight        *float64
	RPE           *float64
	Notes         *string
	CompletedSets *int
}

// MediaInput captures one media attachment from the API layer.
type MediaInput struct {
	URL       string
	Type      string
	SizeBytes *int64
}

// CreateTemplateInput captures the payload for CreateTemplate.
type CreateTemplateInput struct {
	Title           string
	Description     *string
	Intensity       Intensity
	DurationSeconds *int
	Exercises       []ExerciseInput
	Tags            []string
}

// CreatePostInput captures the payload for CreatePost. Every field is
// optional; missing values resolve from the referenced template, then from
// literal defaults.
type CreatePostInput struct {
	TemplateID      *string
	Title           *string
	Description     *string
	Date            *time.Time
	Intensity       *Intensity
	DurationSeconds *int
	Exercises       []ExerciseInput
	Tags            []string
	Media           []MediaInput
}

// PostPage bundles one page of posts with the unfiltered total.
type PostPage struct {
	Items    []Post
	Total    int
	Page     int
	PageSize int
}

// EnsureUser creates the user row on first contact; it is a no-op for known
// users.
func (s *Service) EnsureUser(ctx context.Context, userID string) error {
	return s.repo.UpsertUser(ctx, userID)
}

// CreateTemplate persists a new template with its exercises and tags.
func (s *Service) CreateTemplate(ctx context.Context, userID string, input CreateTemplateInput) (*Template, error) {
	if err := s.repo.UpsertUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	template := Template{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           input.Title,
		Description:     input.Description,
		Intensity:       input.Intensity,
		DurationSeconds: input.DurationSeconds,
		Exercises:       buildExercises(input.Exercises, false),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	return s.repo.CreateTemplate(ctx, template, input.Tags)
}

// ListTemplates returns every template owned by the user, most recently
// updated first.
func (s *Service) ListTemplates(ctx context.Context, userID string) ([]Template, error) {
	return s.repo.FindTemplates(ctx, userID)
}

// CreatePost persists a logged session. Fields absent from the input fall
// back to the referenced template when one resolves, then to literal
// defaults. A template id that resolves to nothing is not an error.
func (s *Service) CreatePost(ctx context.Context, userID string, input CreatePostInput) (*Post, error) {
	if err := s.repo.UpsertUser(ctx, userID); err != nil {
		return nil, err
	}

	var template *Template
	if input.TemplateID != nil && *input.TemplateID != "" {
		found, err := s.repo.FindTemplateByID(ctx, *input.TemplateID)
		if err != nil {
			return nil, err
		}
		template = found
	}

	post := Post{
		ID:         uuid.NewString(),
		UserID:     userID,
		TemplateID: input.TemplateID,
		Title:      DefaultPostTitle,
		Date:       s.now(),
		Intensity:  IntensityMedium,
		CreatedAt:  s.now(),
	}

	if template != nil {
		post.Title = template.Title
		post.Description = template.Description
		post.Intensity = template.Intensity
		post.DurationSeconds = template.DurationSeconds
	}
	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Description != nil {
		post.Description = input.Description
	}
	if input.Date != nil {
		post.Date = input.Date.UTC()
	}
	if input.Intensity != nil {
		post.Intensity = *input.Intensity
	}
	if input.DurationSeconds != nil {
		post.DurationSeconds = input.DurationSeconds
	}

	switch {
	case len(input.Exercises) > 0:
		post.Exercises = buildExercises(input.Exercises, true)
	case template != nil:
		post.Exercises = copyExercises(template.Exercises)
	}

	tagNames := input.Tags
	if len(tagNames) == 0 && template != nil {
		tagNames = make([]string, 0, len(template.Tags))
		for _, tag := range template.Tags {
			tagNames = append(tagNames, tag.Name)
		}
	}

	for _, m := range input.Media {
		post.Media = append(post.Media, Media{
			ID:        uuid.NewString(),
			URL:       m.URL,
			Type:      m.Type,
			SizeBytes: m.SizeBytes,
		})
	}

	return s.repo.CreatePost(ctx, post, tagNames)
}

// ListPosts returns one page of the user's posts by date descending plus the
// total count, read as a single snapshot.
func (s *Service) ListPosts(ctx context.Context, userID string, page, pageSize int) (*PostPage, error) {
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	offset := (page - 1) * pageSize
	items, total, err := s.repo.FindPostsPage(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, err
	}

	return &PostPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// buildExercises materialises exercise rows, defaulting the order index to
// the entry's position in the input list. Completed sets only exist on
// logged sessions, so they are dropped unless withCompletedSets is set.
func buildExercises(inputs []ExerciseInput, withCompletedSets bool) []Exercise {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]Exercise, 0, len(inputs))
	for idx, in := range inputs {
		orderIndex := idx
		if in.OrderIndex != nil {
			orderIndex = *in.OrderIndex
		}
		exercise := Exercise{
			ID:          uuid.NewString(),
			Name:        in.Name,
			OrderIndex:  orderIndex,
			Sets:        in.Sets,
			Reps:        in.Reps,
			RestSeconds: in.RestSeconds,
			Weight:      in.Weight,
			RPE:         in.RPE,
			Notes:       in.Notes,
		}
		if withCompletedSets {
			exercise.CompletedSets = in.CompletedSets
		}
		out = append(out, exercise)
	}
	return out
}

// copyExercises clones template exercises into fresh rows for a post,
// keeping the stored order indices.
func copyExercises(exercises []Exercise) []Exercise {
	if len(exercises) == 0 {
		return nil
	}
	out := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		clone := e
		clone.ID = uuid.NewString()
		clone.CompletedSets = nil
		out = append(out, clone)
	}
	return out
}
