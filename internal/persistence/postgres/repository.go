// Package postgres implements the persistence gateway on top of pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/workouts/internal/domain"
	"example.com/workouts/internal/events"
	"example.com/workouts/internal/observability"
)

// Repository provides Postgres-backed persistence for workouts and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertUser creates the user row if absent; it is a no-op otherwise.
func (r *Repository) UpsertUser(ctx context.Context, userID string) error {
	const stmt = `INSERT INTO users (user_id, created_at) VALUES ($1, NOW())
        ON CONFLICT (user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, stmt, userID)
	return err
}

// CreateTemplate persists the template, its exercises, and its tags in a
// single transaction, alongside the outbox record for the create event.
func (r *Repository) CreateTemplate(ctx context.Context, template domain.Template, tagNames []string) (*domain.Template, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertTemplate = `INSERT INTO workout_templates (template_id, user_id, title, description, intensity, duration_seconds, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, insertTemplate,
		template.ID,
		template.UserID,
		template.Title,
		template.Description,
		template.Intensity,
		template.DurationSeconds,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	const insertExercise = `INSERT INTO template_exercises (exercise_id, template_id, name, order_index, sets, reps, rest_seconds, weight, rpe, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	for _, e := range template.Exercises {
		if _, err = tx.Exec(ctx, insertExercise,
			e.ID, template.ID, e.Name, e.OrderIndex, e.Sets, e.Reps, e.RestSeconds, e.Weight, e.RPE, e.Notes,
		); err != nil {
			return nil, err
		}
	}

	template.Tags, err = connectOrCreateTags(ctx, tx, tagNames)
	if err != nil {
		return nil, err
	}
	for _, tag := range template.Tags {
		if _, err = tx.Exec(ctx,
			`INSERT INTO template_tags (template_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			template.ID, tag.ID,
		); err != nil {
			return nil, err
		}
	}

	tags := make([]string, 0, len(template.Tags))
	for _, tag := range template.Tags {
		tags = append(tags, tag.Name)
	}
	if err = insertOutbox(ctx, tx, "template", template.ID, "workout.template_created", events.TemplateCreated{
		TemplateID:    template.ID,
		UserID:        template.UserID,
		Title:         template.Title,
		Intensity:     string(template.Intensity),
		ExerciseCount: len(template.Exercises),
		Tags:          tags,
		CreatedAt:     template.CreatedAt,
	}, template.UserID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	sortExercises(template.Exercises)
	observability.RecordTemplatePersisted(template.CreatedAt)
	return &template, nil
}

// FindTemplates returns all templates owned by the user, most recently
// updated first, with exercises and tags populated.
func (r *Repository) FindTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	const query = `SELECT template_id, user_id, title, description, intensity, duration_seconds, created_at, updated_at
        FROM workout_templates WHERE user_id=$1 ORDER BY updated_at DESC, template_id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.Template, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Intensity, &t.DurationSeconds, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return templates, nil
	}

	exercisesByID, err := loadExercises(ctx, r.pool, "template_exercises", "template_id", ids, false)
	if err != nil {
		return nil, err
	}
	tagsByID, err := loadTags(ctx, r.pool, "template_tags", "template_id", ids)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		templates[i].Exercises = exercisesByID[templates[i].ID]
		templates[i].Tags = tagsByID[templates[i].ID]
	}
	return templates, nil
}

// FindTemplateByID loads one template with exercises and tags. A missing
// template yields (nil, nil).
func (r *Repository) FindTemplateByID(ctx context.Context, templateID string) (*domain.Template, error) {
	const query = `SELECT template_id, user_id, title, description, intensity, duration_seconds, created_at, updated_at
        FROM workout_templates WHERE template_id=$1`

	row := r.pool.QueryRow(ctx, query, templateID)
	var t domain.Template
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Intensity, &t.DurationSeconds, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	exercisesByID, err := loadExercises(ctx, r.pool, "template_exercises", "template_id", []string{t.ID}, false)
	if err != nil {
		return nil, err
	}
	tagsByID, err := loadTags(ctx, r.pool, "template_tags", "template_id", []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Exercises = exercisesByID[t.ID]
	t.Tags = tagsByID[t.ID]
	return &t, nil
}

// CreatePost persists the post with its exercises, tags, and media in a
// single transaction, alongside the outbox record for the create event.
func (r *Repository) CreatePost(ctx context.Context, post domain.Post, tagNames []string) (*domain.Post, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertPost = `INSERT INTO workout_posts (post_id, user_id, template_id, title, description, date, intensity, duration_seconds, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, insertPost,
		post.ID,
		post.UserID,
		post.TemplateID,
		post.Title,
		post.Description,
		post.Date,
		post.Intensity,
		post.DurationSeconds,
		post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	const insertExercise = `INSERT INTO post_exercises (exercise_id, post_id, name, order_index, sets, reps, rest_seconds, weight, rpe, notes, completed_sets)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	for _, e := range post.Exercises {
		if _, err = tx.Exec(ctx, insertExercise,
			e.ID, post.ID, e.Name, e.OrderIndex, e.Sets, e.Reps, e.RestSeconds, e.Weight, e.RPE, e.Notes, e.CompletedSets,
		); err != nil {
			return nil, err
		}
	}

	post.Tags, err = connectOrCreateTags(ctx, tx, tagNames)
	if err != nil {
		return nil, err
	}
	for _, tag := range post.Tags {
		if _, err = tx.Exec(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			post.ID, tag.ID,
		); err != nil {
			return nil, err
		}
	}

	const insertMedia = `INSERT INTO post_media (media_id, post_id, url, type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)`

	for _, m := range post.Media {
		if _, err = tx.Exec(ctx, insertMedia, m.ID, post.ID, m.URL, m.Type, m.SizeBytes); err != nil {
			return nil, err
		}
	}

	templateID := ""
	if post.TemplateID != nil {
		templateID = *post.TemplateID
	}
	if err = insertOutbox(ctx, tx, "post", post.ID, "workout.post_created", events.PostCreated{
		PostID:        post.ID,
		UserID:        post.UserID,
		TemplateID:    templateID,
		Title:         post.Title,
		Date:          post.Date,
		Intensity:     string(post.Intensity),
		ExerciseCount: len(post.Exercises),
		MediaCount:    len(post.Media),
		CreatedAt:     post.CreatedAt,
	}, post.UserID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	sortExercises(post.Exercises)
	observability.RecordPostPersisted(post.CreatedAt)
	return &post, nil
}

// FindPostsPage returns one page of the user's posts by date descending plus
// the total count. Both reads run inside a single transaction so the page
// and the count reflect the same snapshot.
func (r *Repository) FindPostsPage(ctx context.Context, userID string, offset, limit int) ([]domain.Post, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM workout_posts WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT post_id, user_id, template_id, title, description, date, intensity, duration_seconds, created_at
        FROM workout_posts WHERE user_id=$1
        ORDER BY date DESC, post_id DESC
        LIMIT $2 OFFSET $3`

	rows, err := tx.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]domain.Post, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.TemplateID, &p.Title, &p.Description, &p.Date, &p.Intensity, &p.DurationSeconds, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if len(posts) > 0 {
		exercisesByID, err := loadExercises(ctx, tx, "post_exercises", "post_id", ids, true)
		if err != nil {
			return nil, 0, err
		}
		tagsByID, err := loadTags(ctx, tx, "post_tags", "post_id", ids)
		if err != nil {
			return nil, 0, err
		}
		mediaByID, err := loadMedia(ctx, tx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range posts {
			posts[i].Exercises = exercisesByID[posts[i].ID]
			posts[i].Tags = tagsByID[posts[i].ID]
			posts[i].Media = mediaByID[posts[i].ID]
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// connectOrCreateTags resolves each name to its shared tag row, creating
// missing ones. Names are deduplicated preserving first occurrence.
func connectOrCreateTags(ctx context.Context, tx pgx.Tx, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(names))
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if _, err := tx.Exec(ctx,
			`INSERT INTO tags (tag_id, name) VALUES ($1,$2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name,
		); err != nil {
			return nil, err
		}

		var tag domain.Tag
		if err := tx.QueryRow(ctx, `SELECT tag_id, name FROM tags WHERE name=$1`, name).Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func loadExercises(ctx context.Context, q querier, table, parentColumn string, parentIDs []string, withCompletedSets bool) (map[string][]domain.Exercise, error) {
	columns := "exercise_id, " + parentColumn + ", name, order_index, sets, reps, rest_seconds, weight, rpe, notes"
	if withCompletedSets {
		columns += ", completed_sets"
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1) ORDER BY order_index, exercise_id`, columns, table, parentColumn)

	rows, err := q.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Exercise, len(parentIDs))
	for rows.Next() {
		var e domain.Exercise
		var parentID string
		dest := []any{&e.ID, &parentID, &e.Name, &e.OrderIndex, &e.Sets, &e.Reps, &e.RestSeconds, &e.Weight, &e.RPE, &e.Notes}
		if withCompletedSets {
			dest = append(dest, &e.CompletedSets)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out[parentID] = append(out[parentID], e)
	}
	return out, rows.Err()
}

func loadTags(ctx context.Context, q querier, joinTable, parentColumn string, parentIDs []string) (map[string][]domain.Tag, error) {
	query := fmt.Sprintf(`SELECT j.%s, t.tag_id, t.name FROM %s j
        JOIN tags t ON t.tag_id = j.tag_id
        WHERE j.%s = ANY($1) ORDER BY t.name`, parentColumn, joinTable, parentColumn)

	rows, err := q.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Tag, len(parentIDs))
	for rows.Next() {
		var parentID string
		var tag domain.Tag
		if err := rows.Scan(&parentID, &tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		out[parentID] = append(out[parentID], tag)
	}
	return out, rows.Err()
}

func loadMedia(ctx context.Context, q querier, postIDs []string) (map[string][]domain.Media, error) {
	const query = `SELECT media_id, post_id, url, type, size_bytes FROM post_media
        WHERE post_id = ANY($1) ORDER BY media_id`

	rows, err := q.Query(ctx, query, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Media, len(postIDs))
	for rows.Next() {
		var postID string
		var m domain.Media
		if err := rows.Scan(&m.ID, &postID, &m.URL, &m.Type, &m.SizeBytes); err != nil {
			return nil, err
		}
		out[postID] = append(out[postID], m)
	}
	return out, rows.Err()
}

func sortExercises(exercises []domain.Exercise) {
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].OrderIndex < exercises[j].OrderIndex
	})
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload interface{}, partitionKey string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"workout.template_created": {
		Topic:         "workout_template_events",
		SchemaSubject: "workout_template_events-value",
	},
	"workout.post_created": {
		Topic:         "workout_post_events",
		SchemaSubject: "workout_post_events-value",
	},
}
