// Package memory is the semantic task store: a per-user SQLite collection of
// tasks, each carrying an embedding vector so search can rank by cosine
// similarity instead of substring matching.
package memory

import (
	"strings"
	"time"
)

// Task is one stored task. The embedding is kept in the database and not
// exposed on the struct; it is regenerated whenever the text content changes.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    string    `json:"priority" yaml:"priority"`
	Status      string    `json:"status" yaml:"status"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	DueDate     string    `json:"due_date,omitempty" yaml:"due_date,omitempty"` // YYYY-MM-DD
	Completed   bool      `json:"completed" yaml:"completed"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Canonical priority and status values.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// embeddingText is the text a task is embedded under: title, description,
// and tags concatenated, so all three contribute to semantic matches.
func (t *Task) embeddingText() string {
	parts := []string{t.Title}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	if len(t.Tags) > 0 {
		parts = append(parts, strings.Join(t.Tags, " "))
	}
	return strings.Join(parts, " ")
}

// IsOverdue reports whether the task has a due date before today and is not
// completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == "" || t.Completed {
		return false
	}
	due, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// normalize fills defaults for empty fields and syncs the completed flag
// with the status.
func (t *Task) normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	t.Completed = t.Status == StatusCompleted
}
