// Package nlp implements the natural-language command interpreter for taskmind.
// It converts a free-form sentence into a typed Command with extracted
// entities (title, priority, status, due date, tags) via an ordered
// pattern-rule table with a keyword-inference fallback.
//
// The interpreter is a pure, synchronous computation: one input string in,
// one Command out. All pattern tables and keyword lists are immutable after
// package init, so Parse is safe for concurrent use.
package nlp

// Category is the classified command type.
type Category string

const (
	CategoryAddTask     Category = "add_task"
	CategorySearchTasks Category = "search_tasks"
	CategoryListTasks   Category = "list_tasks"
	CategoryUpdateTask  Category = "update_task"
	CategoryDeleteTask  Category = "delete_task"
	CategoryShowStats   Category = "show_stats"
	CategoryUnknown     Category = "unknown"
)

// Display returns the category with underscores replaced by spaces,
// for user-facing messages ("add_task" -> "add task").
func (c Category) Display() string {
	out := make([]byte, len(c))
	for i := 0; i < len(c); i++ {
		if c[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = c[i]
		}
	}
	return string(out)
}

// Priority levels recognized by the interpreter and the task store.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Status values recognized by the interpreter and the task store.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Command is the structured result of parsing one user input.
// It is constructed fresh per input and carries no identity beyond
// the single request.
type Command struct {
	// Category is always set; CategoryUnknown carries Err.
	Category Category

	// Confidence signals match strength: 0.9 for a direct pattern match,
	// 0.7-0.8 for keyword inference, 0.0 for unrecognized input.
	Confidence float64

	// RawInput is the original text, preserved verbatim.
	RawInput string

	// add_task fields
	Title       string
	Description string
	Tags        []string

	// Entities extracted independently of category. Empty string means
	// the entity was not present in the input.
	Priority string
	Status   string
	DueDate  string // ISO 8601 date (YYYY-MM-DD), never a relative expression

	// search_tasks
	Query string

	// update_task / delete_task. HasTaskID distinguishes "id 0" from
	// "no id could be determined".
	TaskID    int
	HasTaskID bool
	Field     string
	Value     string

	// Err holds a human-readable message when Category is CategoryUnknown.
	Err string
}
