package suggest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"taskmind/internal/memory"
)

var anchor = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

func task(title string, mutate ...func(*memory.Task)) memory.Task {
	t := memory.Task{
		ID:        title,
		UserID:    "alice",
		Title:     title,
		Priority:  memory.PriorityMedium,
		Status:    memory.StatusPending,
		CreatedAt: anchor.AddDate(0, 0, -1),
	}
	for _, m := range mutate {
		m(&t)
	}
	return t
}

func completed(t *memory.Task) {
	t.Status = memory.StatusCompleted
	t.Completed = true
}

func TestSuggestOnboarding(t *testing.T) {
	e := newEngineAt(anchor)

	got, err := e.Suggest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(got))
	}
	if got[0].Title != "Create your first task" || got[0].Confidence != 0.95 {
		t.Errorf("first = %q (%v)", got[0].Title, got[0].Confidence)
	}
	if got[2].Title != "Add a high-priority task" || got[2].Confidence != 0.85 {
		t.Errorf("third = %q (%v)", got[2].Title, got[2].Confidence)
	}

	got, err = e.Suggest(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit 1 returned %d suggestions", len(got))
	}
}

func TestAnalyzePatternsTooFewTasks(t *testing.T) {
	tasks := []memory.Task{task("a"), task("b")}
	if got := newEngineAt(anchor).AnalyzePatterns(tasks); got != nil {
		t.Errorf("patterns = %v, want none below three tasks", got)
	}
}

func TestAnalyzePriorityHeavy(t *testing.T) {
	var tasks []memory.Task
	for i := 0; i < 7; i++ {
		tasks = append(tasks, task("h", func(m *memory.Task) { m.Priority = memory.PriorityHigh }))
	}
	for i := 0; i < 3; i++ {
		tasks = append(tasks, task("m"))
	}

	patterns := newEngineAt(anchor).AnalyzePatterns(tasks)
	p := findPattern(patterns, PatternHighPriority)
	if p == nil {
		t.Fatalf("patterns = %v, want %s", patterns, PatternHighPriority)
	}
	if p.Confidence != 0.85 || p.DataPoints != 10 {
		t.Errorf("pattern = %+v", p)
	}
	if !strings.Contains(p.Description, "70.0%") {
		t.Errorf("description = %q, want the high ratio", p.Description)
	}
}

func TestAnalyzeLowCompletion(t *testing.T) {
	tasks := []memory.Task{task("done", completed)}
	for i := 0; i < 9; i++ {
		tasks = append(tasks, task("open"))
	}

	patterns := newEngineAt(anchor).AnalyzePatterns(tasks)
	if findPattern(patterns, PatternLowCompletion) == nil {
		t.Errorf("patterns = %v, want %s", patterns, PatternLowCompletion)
	}
}

func TestAnalyzeSlowCompletion(t *testing.T) {
	// Half completed, each taking four days.
	var tasks []memory.Task
	for i := 0; i < 3; i++ {
		tasks = append(tasks, task("done", completed, func(m *memory.Task) {
			m.CreatedAt = anchor.AddDate(0, 0, -10)
			m.UpdatedAt = anchor.AddDate(0, 0, -6)
		}))
	}
	for i := 0; i < 3; i++ {
		tasks = append(tasks, task("open"))
	}

	patterns := newEngineAt(anchor).AnalyzePatterns(tasks)
	p := findPattern(patterns, PatternSlowCompletion)
	if p == nil {
		t.Fatalf("patterns = %v, want %s", patterns, PatternSlowCompletion)
	}
	if !strings.Contains(p.Description, "96.0 hours") {
		t.Errorf("description = %q", p.Description)
	}
}

func TestAnalyzeFrequentOverdue(t *testing.T) {
	tasks := []memory.Task{
		task("late1", func(m *memory.Task) { m.DueDate = "2026-08-01" }),
		task("late2", func(m *memory.Task) { m.DueDate = "2026-08-10" }),
		task("future", func(m *memory.Task) { m.DueDate = "2026-12-01" }),
	}

	patterns := newEngineAt(anchor).AnalyzePatterns(tasks)
	p := findPattern(patterns, PatternFrequentOverdue)
	if p == nil {
		t.Fatalf("patterns = %v, want %s", patterns, PatternFrequentOverdue)
	}
	if p.DataPoints != 3 {
		t.Errorf("data points = %d, want 3", p.DataPoints)
	}
}

func TestAnalyzeBurstCreation(t *testing.T) {
	// Five tasks on one day against single tasks on two other days.
	var tasks []memory.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, task("burst"))
	}
	tasks = append(tasks,
		task("a", func(m *memory.Task) { m.CreatedAt = anchor.AddDate(0, 0, -3) }),
		task("b", func(m *memory.Task) { m.CreatedAt = anchor.AddDate(0, 0, -5) }),
	)

	patterns := newEngineAt(anchor).AnalyzePatterns(tasks)
	if findPattern(patterns, PatternBurstCreation) == nil {
		t.Errorf("patterns = %v, want %s", patterns, PatternBurstCreation)
	}
}

func TestSuggestOverdueNudge(t *testing.T) {
	tasks := []memory.Task{
		task("late", func(m *memory.Task) { m.DueDate = "2026-08-20" }),
		task("a"), task("b"), task("c"),
	}

	got, err := newEngineAt(anchor).Suggest(context.Background(), tasks, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %v, want just the overdue nudge", titles(got))
	}
	if got[0].Title != "Address 1 overdue tasks" || got[0].Type != TypePriorityOptimize {
		t.Errorf("suggestion = %+v", got[0])
	}
}

func TestSuggestSortedByConfidence(t *testing.T) {
	// Overdue (0.9) should outrank quick wins (0.8).
	tasks := []memory.Task{
		task("late", func(m *memory.Task) { m.DueDate = "2026-08-20" }),
		task("easy", func(m *memory.Task) { m.Priority = memory.PriorityLow }),
		task("a"), task("b"),
	}

	got, err := newEngineAt(anchor).Suggest(context.Background(), tasks, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("suggestions = %v", titles(got))
	}
	if got[0].Title != "Address 1 overdue tasks" {
		t.Errorf("first = %q, want the overdue nudge", got[0].Title)
	}
	if got[1].Title != "Complete 1 quick tasks" {
		t.Errorf("second = %q, want the quick-win nudge", got[1].Title)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("suggestions out of order at %d: %v", i, titles(got))
		}
	}
}

func TestSuggestTemplateFromRepeatedTitleWord(t *testing.T) {
	tasks := []memory.Task{
		task("review budget"),
		task("review notes"),
		task("review plan"),
	}

	got, err := newEngineAt(anchor).Suggest(context.Background(), tasks, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	found := false
	for _, s := range got {
		if s.Title == "Create template for review tasks" {
			found = true
			if s.Type != TypeWorkflowImprovement {
				t.Errorf("type = %q", s.Type)
			}
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want a template suggestion", titles(got))
	}
}

func TestSuggestDeterministic(t *testing.T) {
	tasks := []memory.Task{
		task("late", func(m *memory.Task) { m.DueDate = "2026-08-20" }),
		task("easy", func(m *memory.Task) { m.Priority = memory.PriorityLow }),
		task("review budget", func(m *memory.Task) { m.Tags = []string{"work"} }),
		task("review notes", func(m *memory.Task) { m.Tags = []string{"work"} }),
		task("review plan"),
	}

	e := newEngineAt(anchor)
	first, err := e.Suggest(context.Background(), tasks, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	second, err := e.Suggest(context.Background(), tasks, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("suggestions differ between runs (-first +second):\n%s", diff)
	}
}

func TestSuggestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngineAt(anchor).Suggest(ctx, []memory.Task{task("a"), task("b"), task("c")}, 10)
	if err == nil {
		t.Error("want an error for a canceled context")
	}
}

func TestProductivityScore(t *testing.T) {
	e := newEngineAt(anchor)

	empty := e.ProductivityScore(nil)
	if empty.Score != 0 || empty.Level != "Beginner" {
		t.Errorf("empty score = %+v", empty)
	}

	// All completed, 30% high priority, all tagged, no due dates.
	var tasks []memory.Task
	for i := 0; i < 10; i++ {
		i := i
		tasks = append(tasks, task("t", completed, func(m *memory.Task) {
			m.Tags = []string{"work"}
			if i < 3 {
				m.Priority = memory.PriorityHigh
			}
		}))
	}
	score := e.ProductivityScore(tasks)
	if score.Score != 90 {
		t.Errorf("score = %v, want 90", score.Score)
	}
	if score.Level != "Expert" {
		t.Errorf("level = %q, want Expert", score.Level)
	}
	if score.CompletionRate != 100 || score.TagUsage != 100 || score.DueDateAdherence != 50 {
		t.Errorf("components = %+v", score)
	}
}

func TestNextActions(t *testing.T) {
	e := newEngineAt(anchor)

	empty := e.NextActions(nil, 3)
	if len(empty) != 1 || empty[0].Action != "Create your first task" {
		t.Errorf("empty actions = %v", empty)
	}

	tasks := []memory.Task{
		task("late", func(m *memory.Task) { m.DueDate = "2026-08-20" }),
		task("big", func(m *memory.Task) { m.Priority = memory.PriorityHigh }),
		task("easy", func(m *memory.Task) { m.Priority = memory.PriorityLow }),
	}
	actions := e.NextActions(tasks, 3)
	if len(actions) != 3 {
		t.Fatalf("actions = %v, want 3", actions)
	}
	if actions[0].Action != "Address 1 overdue task(s)" {
		t.Errorf("first action = %q", actions[0].Action)
	}
	if actions[1].Action != "Focus on 1 high-priority task(s)" {
		t.Errorf("second action = %q", actions[1].Action)
	}
	if actions[2].Action != "Complete 1 quick task(s)" {
		t.Errorf("third action = %q", actions[2].Action)
	}
}

func findPattern(patterns []BehaviorPattern, typ string) *BehaviorPattern {
	for i := range patterns {
		if patterns[i].Type == typ {
			return &patterns[i]
		}
	}
	return nil
}

func titles(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Title
	}
	return out
}
