package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Task) BelongsTo(userID string) bool {
	return t.UserID == userID
}

// TaskPatch carries only the fields a caller asked to change. A nil field
// is left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Fields returns the names of the provided fields using their storage identifiers.
func (p TaskPatch) Fields() []string {
	fields := make([]string, 0, 3)

	if p.Title != nil {
		fields = append(fields, "title")
	}

	if p.Description != nil {
		fields = append(fields, "description")
	}

	if p.Completed != nil {
		fields = append(fields, "completed")
	}

	return fields
}

// Normalize trims the title and validates the provided fields against the
// task field rules.
func (p TaskPatch) Normalize() (TaskPatch, error) {
	if p.Title != nil {
		title, err := NormalizeTitle(*p.Title)

		if err != nil {
			return p, err
		}

		p.Title = &title
	}

	if p.Description != nil {
		if err := ValidateDescription(*p.Description); err != nil {
			return p, err
		}
	}

	return p, nil
}

// Apply merges the patch into t and stamps UpdatedAt.
func (p TaskPatch) Apply(t Task, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}

	if p.Description != nil {
		t.Description = *p.Description
	}

	if p.Completed != nil {
		t.Completed = *p.Completed
	}

	t.UpdatedAt = now

	return t
}

func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, MaxTitleLength)
	}

	return title, nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, MaxDescriptionLength)
	}

	return nil
}
