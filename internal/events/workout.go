// Package events defines event payloads published to downstream consumers.
package events

import "time"

// TemplateCreated is emitted when a new workout template is accepted.
type TemplateCreated struct {
	TemplateID    string    `json:"template_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Intensity     string    `json:"intensity"`
	ExerciseCount int       `json:"exercise_count"`
	Tags          []string  `json:"tags,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// PostCreated is emitted when a new workout post is accepted.
type PostCreated struct {
	PostID        string    `json:"post_id"`
	UserID        string    `json:"user_id"`
	TemplateID    string    `json:"template_id,omitempty"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Intensity     string    `json:"intensity"`
	ExerciseCount int       `json:"exercise_count"`
	MediaCount    int       `json:"media_count"`
	CreatedAt     time.Time `json:"created_at"`
}
