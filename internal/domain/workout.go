package domain

import "time"

// Intensity grades how demanding a workout is.
type Intensity string

const (
	IntensityLow    Intensity = "LOW"
	IntensityMedium Intensity = "MEDIUM"
	IntensityHigh   Intensity = "HIGH"
)

// Valid reports whether the value is one of the known intensity grades.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	}
	return false
}

// Exercise is a single entry in a template or post. CompletedSets is only
// meaningful on posts; it stays nil on template rows.
type Exercise struct {
	ID            string
	Name          string
	OrderIndex    int
	Sets          *int
	Reps          *int
	RestSeconds   *int
	Weight        *float64
	RPE           *float64
	Notes         *string
	CompletedSets *int
}

// Tag is a label shared across all users; names are globally unique.
type Tag struct {
	ID   string
	Name string
}

// Media is an attachment owned by exactly one post.
type Media struct {
	ID        string
	URL       string
	Type      string
	SizeBytes *int64
}

// Template is a reusable workout plan owned by one user.
type Template struct {
	ID              string
	UserID          string
	Title           string
	Description     *string
	Intensity       Intensity
	DurationSeconds *int
	Exercises       []Exercise
	Tags            []Tag
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Post is a logged workout session. TemplateID is stored exactly as the
// caller supplied it; it may reference a template that no longer resolves.
type Post struct {
	ID              string
	UserID          string
	TemplateID      *string
	Title           string
	Description     *string
	Date            time.Time
	Intensity       Intensity
	DurationSeconds *int
	Exercises       []Exercise
	Tags            []Tag
	Media           []Media
	CreatedAt       time.Time
}
