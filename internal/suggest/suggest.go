// Package suggest generates task suggestions and next actions from a user's
// task history. All analysis is deterministic: suggestions come from behavior
// patterns (priority habits, tag usage, completion rate, due-date adherence)
// observed in the task list, never from a model.
package suggest

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"taskmind/internal/logging"
	"taskmind/internal/memory"
)

// =============================================================================
// TYPES
// =============================================================================

// Suggestion is a recommended task or workflow change.
type Suggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Type        string   `json:"suggestion_type"`
	DueDate     string   `json:"due_date,omitempty"`
}

// Suggestion types.
const (
	TypeOnboarding          = "onboarding"
	TypeProductivityBoost   = "productivity_boost"
	TypePriorityOptimize    = "priority_optimization"
	TypeTimeManagement      = "time_management"
	TypeWorkflowImprovement = "workflow_improvement"
)

// BehaviorPattern describes a recurring habit detected in the task history.
type BehaviorPattern struct {
	Type            string   `json:"pattern_type"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence"`
	DataPoints      int      `json:"data_points"`
	Recommendations []string `json:"recommendations"`
}

// Pattern types.
const (
	PatternBurstCreation    = "burst_creation"
	PatternHighPriority     = "high_priority_heavy"
	PatternLowPriority      = "low_priority_heavy"
	PatternLowCompletion    = "low_completion_rate"
	PatternSlowCompletion   = "slow_completion"
	PatternLowTagUsage      = "low_tag_usage"
	PatternHighTagDiversity = "high_tag_diversity"
	PatternFrequentOverdue  = "frequent_overdue"
)

// NextAction is a short recommended step for the user's current task state.
type NextAction struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Reasoning string `json:"reasoning"`
}

// Score grades overall productivity on a 0-100 scale.
type Score struct {
	Score            float64 `json:"score"`
	Level            string  `json:"level"`
	CompletionRate   float64 `json:"completion_rate"`
	PriorityBalance  float64 `json:"priority_balance"`
	TagUsage         float64 `json:"tag_usage"`
	DueDateAdherence float64 `json:"due_date_adherence"`
	Message          string  `json:"message"`
}

// DefaultLimit caps the suggestion list when the caller passes limit <= 0.
const DefaultLimit = 5

// =============================================================================
// ENGINE
// =============================================================================

// Engine produces suggestions from task snapshots.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an Engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

func newEngineAt(anchor time.Time) *Engine {
	return &Engine{now: func() time.Time { return anchor }}
}

// Suggest returns up to limit suggestions for the given tasks, sorted by
// confidence. An empty task list yields onboarding suggestions. The four
// suggestion sources run concurrently; their relative order is fixed so the
// output is deterministic for a given snapshot.
func (e *Engine) Suggest(ctx context.Context, tasks []memory.Task, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	timer := logging.StartTimer(logging.CategoryAnalytics, "generate suggestions")
	defer timer.Stop()

	if len(tasks) == 0 {
		return e.onboarding(limit), nil
	}

	patterns := e.AnalyzePatterns(tasks)

	// Each source writes its own slot, so the merge order is stable no
	// matter which goroutine finishes first.
	sources := make([][]Suggestion, 4)
	g, ctx := errgroup.WithContext(ctx)
	run := func(slot int, fn func() []Suggestion) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sources[slot] = fn()
			return nil
		})
	}
	run(0, func() []Suggestion { return e.contextual(patterns) })
	run(1, func() []Suggestion { return e.completion(tasks) })
	run(2, func() []Suggestion { return e.optimization(tasks) })
	run(3, func() []Suggestion { return e.proactive(tasks) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("suggestion generation: %w", err)
	}

	var all []Suggestion
	for _, s := range sources {
		all = append(all, s...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Confidence > all[j].Confidence })
	if len(all) > limit {
		all = all[:limit]
	}
	logging.AnalyticsDebug("suggestions: %d patterns, %d suggestions", len(patterns), len(all))
	return all, nil
}

func (e *Engine) onboarding(limit int) []Suggestion {
	out := []Suggestion{
		{
			Title:       "Create your first task",
			Description: "Start by adding a simple task to get familiar with the system",
			Priority:    memory.PriorityMedium,
			Tags:        []string{"getting-started"},
			Confidence:  0.95,
			Reasoning:   "New users benefit from starting with basic task creation",
			Type:        TypeOnboarding,
		},
		{
			Title:       "Set up your workspace",
			Description: "Organize your physical and digital workspace for better productivity",
			Priority:    memory.PriorityMedium,
			Tags:        []string{"setup", "organization"},
			Confidence:  0.90,
			Reasoning:   "A well-organized workspace improves focus and efficiency",
			Type:        TypeOnboarding,
		},
		{
			Title:       "Add a high-priority task",
			Description: "Practice using priorities by adding something important",
			Priority:    memory.PriorityHigh,
			Tags:        []string{"getting-started", "priority"},
			Confidence:  0.85,
			Reasoning:   "Learning the priority system early builds good habits",
			Type:        TypeOnboarding,
		},
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// =============================================================================
// BEHAVIOR PATTERNS
// =============================================================================

// AnalyzePatterns detects recurring habits in the task history.
func (e *Engine) AnalyzePatterns(tasks []memory.Task) []BehaviorPattern {
	if len(tasks) < 3 {
		return nil
	}

	var patterns []BehaviorPattern
	for _, analyze := range []func([]memory.Task) *BehaviorPattern{
		e.creationPattern,
		e.priorityPattern,
		e.completionPattern,
		e.tagPattern,
		e.timePattern,
	} {
		if p := analyze(tasks); p != nil {
			patterns = append(patterns, *p)
		}
	}
	return patterns
}

func (e *Engine) creationPattern(tasks []memory.Task) *BehaviorPattern {
	daily := make(map[string]int)
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			continue
		}
		daily[t.CreatedAt.Format("2006-01-02")]++
	}
	if len(daily) == 0 {
		return nil
	}

	var sum, max int
	for _, n := range daily {
		sum += n
		if n > max {
			max = n
		}
	}
	avg := float64(sum) / float64(len(daily))
	if float64(max) <= avg*2 {
		return nil
	}
	return &BehaviorPattern{
		Type:        PatternBurstCreation,
		Description: fmt.Sprintf("You tend to create tasks in bursts (up to %d per day)", max),
		Confidence:  0.8,
		DataPoints:  len(daily),
		Recommendations: []string{
			"Consider spreading task creation throughout the day",
			"Use task templates for common activities",
			"Batch planning sessions for better organization",
		},
	}
}

func (e *Engine) priorityPattern(tasks []memory.Task) *BehaviorPattern {
	total := len(tasks)
	if total < 5 {
		return nil
	}

	counts := make(map[string]int)
	for _, t := range tasks {
		counts[t.Priority]++
	}
	highRatio := float64(counts[memory.PriorityHigh]) / float64(total)
	lowRatio := float64(counts[memory.PriorityLow]) / float64(total)

	switch {
	case highRatio > 0.6:
		return &BehaviorPattern{
			Type:        PatternHighPriority,
			Description: fmt.Sprintf("You mark %.1f%% of tasks as high priority", highRatio*100),
			Confidence:  0.85,
			DataPoints:  total,
			Recommendations: []string{
				"Consider if all tasks truly need high priority",
				"Use medium priority for important but not urgent tasks",
				"Review priority criteria to avoid priority inflation",
			},
		}
	case lowRatio > 0.7:
		return &BehaviorPattern{
			Type:        PatternLowPriority,
			Description: fmt.Sprintf("You mark %.1f%% of tasks as low priority", lowRatio*100),
			Confidence:  0.85,
			DataPoints:  total,
			Recommendations: []string{
				"Review if some tasks could be higher priority",
				"Consider delegating or removing very low priority tasks",
				"Focus on medium priority tasks for better balance",
			},
		}
	}
	return nil
}

func (e *Engine) completionPattern(tasks []memory.Task) *BehaviorPattern {
	var done, pending int
	var completionHours []float64
	for _, t := range tasks {
		if t.Completed {
			done++
			if !t.CreatedAt.IsZero() && t.UpdatedAt.After(t.CreatedAt) {
				completionHours = append(completionHours, t.UpdatedAt.Sub(t.CreatedAt).Hours())
			}
		} else {
			pending++
		}
	}
	if done == 0 || pending == 0 {
		return nil
	}

	rate := float64(done) / float64(len(tasks))
	if rate < 0.3 {
		return &BehaviorPattern{
			Type:        PatternLowCompletion,
			Description: fmt.Sprintf("Your task completion rate is %.1f%%", rate*100),
			Confidence:  0.9,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Break down large tasks into smaller subtasks",
				"Set realistic deadlines for better motivation",
				"Focus on completing 1-3 tasks per day",
				"Review and remove tasks that are no longer relevant",
			},
		}
	}

	if len(completionHours) > 0 {
		var sum float64
		for _, h := range completionHours {
			sum += h
		}
		avg := sum / float64(len(completionHours))
		if avg > 72 {
			return &BehaviorPattern{
				Type:        PatternSlowCompletion,
				Description: fmt.Sprintf("Tasks take an average of %.1f hours to complete", avg),
				Confidence:  0.8,
				DataPoints:  len(completionHours),
				Recommendations: []string{
					"Set shorter time blocks for task completion",
					"Use time tracking to identify bottlenecks",
					"Consider if tasks are too complex",
					"Implement the 2-minute rule for quick tasks",
				},
			}
		}
	}
	return nil
}

func (e *Engine) tagPattern(tasks []memory.Task) *BehaviorPattern {
	var tagged []memory.Task
	for _, t := range tasks {
		if len(t.Tags) > 0 {
			tagged = append(tagged, t)
		}
	}
	if len(tagged) < 3 {
		return nil
	}

	usage := float64(len(tagged)) / float64(len(tasks))
	if usage < 0.3 {
		return &BehaviorPattern{
			Type:        PatternLowTagUsage,
			Description: fmt.Sprintf("Only %.1f%% of tasks have tags", usage*100),
			Confidence:  0.75,
			DataPoints:  len(tasks),
			Recommendations: []string{
				"Use tags to categorize tasks by project or context",
				"Create consistent tag naming conventions",
				"Tag tasks to improve search and filtering",
				"Use tags for better task organization",
			},
		}
	}

	unique := make(map[string]struct{})
	for _, t := range tagged {
		for _, tag := range t.Tags {
			unique[tag] = struct{}{}
		}
	}
	if len(unique) > 20 {
		return &BehaviorPattern{
			Type:        PatternHighTagDiversity,
			Description: fmt.Sprintf("You use %d different tags", len(unique)),
			Confidence:  0.7,
			DataPoints:  len(tagged),
			Recommendations: []string{
				"Consider consolidating similar tags",
				"Create a tag hierarchy for better organization",
				"Review and remove unused tags",
				"Standardize tag naming conventions",
			},
		}
	}
	return nil
}

func (e *Engine) timePattern(tasks []memory.Task) *BehaviorPattern {
	var withDue []memory.Task
	for _, t := range tasks {
		if t.DueDate != "" {
			withDue = append(withDue, t)
		}
	}
	if len(withDue) < 3 {
		return nil
	}

	today := e.now().Format("2006-01-02")
	var overdue int
	for _, t := range withDue {
		if !t.Completed && t.DueDate < today {
			overdue++
		}
	}
	rate := float64(overdue) / float64(len(withDue))
	if rate <= 0.3 {
		return nil
	}
	return &BehaviorPattern{
		Type:        PatternFrequentOverdue,
		Description: fmt.Sprintf("%.1f%% of tasks with due dates are overdue", rate*100),
		Confidence:  0.85,
		DataPoints:  len(withDue),
		Recommendations: []string{
			"Set more realistic due dates",
			"Add buffer time to your estimates",
			"Review and adjust deadlines regularly",
			"Consider using time estimates instead of just due dates",
		},
	}
}

// =============================================================================
// SUGGESTION SOURCES
// =============================================================================

func (e *Engine) contextual(patterns []BehaviorPattern) []Suggestion {
	var out []Suggestion
	for _, p := range patterns {
		switch p.Type {
		case PatternLowCompletion:
			out = append(out, Suggestion{
				Title:       "Create a daily focus list",
				Description: "Select 3 most important tasks for today and focus on completing them",
				Priority:    memory.PriorityHigh,
				Tags:        []string{"productivity", "focus"},
				Confidence:  0.9,
				Reasoning:   "Low completion rate detected - need to improve focus",
				Type:        TypeProductivityBoost,
			})
		case PatternHighPriority:
			out = append(out, Suggestion{
				Title:       "Review and reprioritize tasks",
				Description: "Go through your high-priority tasks and identify which can be medium priority",
				Priority:    memory.PriorityMedium,
				Tags:        []string{"organization", "priority"},
				Confidence:  0.85,
				Reasoning:   "Too many high-priority tasks detected",
				Type:        TypePriorityOptimize,
			})
		case PatternFrequentOverdue:
			out = append(out, Suggestion{
				Title:       "Set up a weekly planning session",
				Description: "Dedicate 30 minutes each week to review and adjust task deadlines",
				Priority:    memory.PriorityMedium,
				Tags:        []string{"planning", "time-management"},
				Confidence:  0.8,
				Reasoning:   "Frequent overdue tasks detected",
				Type:        TypeTimeManagement,
			})
		}
	}
	return out
}

func (e *Engine) completion(tasks []memory.Task) []Suggestion {
	var out []Suggestion

	quickWins := 0
	for _, t := range tasks {
		if !t.Completed && t.Priority == memory.PriorityLow && len(t.Description) < 50 {
			quickWins++
		}
	}
	if quickWins > 0 {
		n := quickWins
		if n > 3 {
			n = 3
		}
		out = append(out, Suggestion{
			Title:       fmt.Sprintf("Complete %d quick tasks", n),
			Description: "Focus on simple, low-priority tasks to build momentum",
			Priority:    memory.PriorityLow,
			Tags:        []string{"momentum", "quick-wins"},
			Confidence:  0.8,
			Reasoning:   fmt.Sprintf("Found %d potential quick wins", quickWins),
			Type:        TypeProductivityBoost,
		})
	}

	if overdue := e.countOverdue(tasks); overdue > 0 {
		out = append(out, Suggestion{
			Title:       fmt.Sprintf("Address %d overdue tasks", overdue),
			Description: "Review and either complete, reschedule, or remove overdue tasks",
			Priority:    memory.PriorityHigh,
			Tags:        []string{"overdue", "cleanup"},
			Confidence:  0.9,
			Reasoning:   fmt.Sprintf("Found %d overdue tasks", overdue),
			Type:        TypePriorityOptimize,
		})
	}
	return out
}

func (e *Engine) optimization(tasks []memory.Task) []Suggestion {
	var out []Suggestion

	oversized := 0
	for _, t := range tasks {
		if len(t.Description) > 100 {
			oversized++
		}
	}
	if oversized > 0 {
		out = append(out, Suggestion{
			Title:       "Break down complex tasks",
			Description: "Split large tasks into smaller, manageable subtasks",
			Priority:    memory.PriorityMedium,
			Tags:        []string{"optimization", "complexity"},
			Confidence:  0.75,
			Reasoning:   fmt.Sprintf("Found %d complex tasks that could be simplified", oversized),
			Type:        TypeWorkflowImprovement,
		})
	}

	if tag, count := mostCommonTag(tasks); tag != "" {
		out = append(out, Suggestion{
			Title:       fmt.Sprintf("Focus on %s tasks", tag),
			Description: fmt.Sprintf("You have %d tasks tagged with '%s' - consider batching them", count, tag),
			Priority:    memory.PriorityMedium,
			Tags:        []string{"batching", "focus"},
			Confidence:  0.7,
			Reasoning:   fmt.Sprintf("Most common tag: %s with %d tasks", tag, count),
			Type:        TypeProductivityBoost,
		})
	}
	return out
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

func (e *Engine) proactive(tasks []memory.Task) []Suggestion {
	var out []Suggestion

	// Words that recur across task titles hint at a repeatable activity.
	wordCounts := make(map[string]int)
	var order []string
	for _, t := range tasks {
		for _, w := range wordPattern.FindAllString(strings.ToLower(t.Title), -1) {
			if wordCounts[w] == 0 {
				order = append(order, w)
			}
			wordCounts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return wordCounts[order[i]] > wordCounts[order[j]] })
	for _, w := range order {
		if wordCounts[w] > 2 && len(w) > 3 {
			out = append(out, Suggestion{
				Title:       fmt.Sprintf("Create template for %s tasks", w),
				Description: fmt.Sprintf("Since you frequently create tasks involving '%s', consider creating a template", w),
				Priority:    memory.PriorityLow,
				Tags:        []string{"template", "efficiency"},
				Confidence:  0.6,
				Reasoning:   fmt.Sprintf("'%s' appears in %d task titles", w, wordCounts[w]),
				Type:        TypeWorkflowImprovement,
			})
			break
		}
	}

	highPending := 0
	for _, t := range tasks {
		if !t.Completed && t.Priority == memory.PriorityHigh {
			highPending++
		}
	}
	if highPending > 3 {
		out = append(out, Suggestion{
			Title:       "Schedule focused time blocks",
			Description: "Block 2-3 hours for your high-priority tasks to ensure completion",
			Priority:    memory.PriorityHigh,
			Tags:        []string{"time-blocking", "focus"},
			Confidence:  0.8,
			Reasoning:   fmt.Sprintf("You have %d high-priority pending tasks", highPending),
			Type:        TypeTimeManagement,
		})
	}
	return out
}

// =============================================================================
// SCORE AND NEXT ACTIONS
// =============================================================================

// ProductivityScore grades the task history against completion, priority
// balance, tag usage, and due-date adherence.
func (e *Engine) ProductivityScore(tasks []memory.Task) Score {
	if len(tasks) == 0 {
		return Score{Level: "Beginner", Message: "No tasks to analyze"}
	}

	var done, high, tagged int
	for _, t := range tasks {
		if t.Completed {
			done++
		}
		if t.Priority == memory.PriorityHigh {
			high++
		}
		if len(t.Tags) > 0 {
			tagged++
		}
	}
	total := float64(len(tasks))
	completionRate := float64(done) / total

	// 30% high priority is the ideal split.
	priorityBalance := 1 - math.Abs(float64(high)/total-0.3)
	tagScore := float64(tagged) / total

	dueDateScore := 0.5
	var withDue int
	for _, t := range tasks {
		if t.DueDate != "" {
			withDue++
		}
	}
	if withDue > 0 {
		dueDateScore = 1 - float64(e.countOverdue(tasks))/float64(withDue)
	}

	overall := (completionRate*0.4 + priorityBalance*0.2 + tagScore*0.2 + dueDateScore*0.2) * 100

	var level string
	switch {
	case overall >= 80:
		level = "Expert"
	case overall >= 60:
		level = "Advanced"
	case overall >= 40:
		level = "Intermediate"
	default:
		level = "Beginner"
	}

	return Score{
		Score:            round1(overall),
		Level:            level,
		CompletionRate:   round1(completionRate * 100),
		PriorityBalance:  round1(priorityBalance * 100),
		TagUsage:         round1(tagScore * 100),
		DueDateAdherence: round1(dueDateScore * 100),
		Message:          fmt.Sprintf("You're at %s level with %.1f%% productivity score", level, overall),
	}
}

// NextActions recommends up to limit concrete next steps.
func (e *Engine) NextActions(tasks []memory.Task, limit int) []NextAction {
	if limit <= 0 {
		limit = 3
	}
	if len(tasks) == 0 {
		return []NextAction{{
			Action:    "Create your first task",
			Priority:  memory.PriorityHigh,
			Reasoning: "Get started with task management",
		}}
	}

	var actions []NextAction
	if overdue := e.countOverdue(tasks); overdue > 0 {
		actions = append(actions, NextAction{
			Action:    fmt.Sprintf("Address %d overdue task(s)", overdue),
			Priority:  memory.PriorityHigh,
			Reasoning: "Overdue tasks can create stress and reduce productivity",
		})
	}

	var highPending, quickWins, pending int
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		pending++
		if t.Priority == memory.PriorityHigh {
			highPending++
		}
		if t.Priority == memory.PriorityLow && len(t.Description) < 50 {
			quickWins++
		}
	}
	if highPending > 0 {
		actions = append(actions, NextAction{
			Action:    fmt.Sprintf("Focus on %d high-priority task(s)", highPending),
			Priority:  memory.PriorityHigh,
			Reasoning: "High-priority tasks should be completed first",
		})
	}
	if quickWins > 0 {
		n := quickWins
		if n > 3 {
			n = 3
		}
		actions = append(actions, NextAction{
			Action:    fmt.Sprintf("Complete %d quick task(s)", n),
			Priority:  memory.PriorityMedium,
			Reasoning: "Quick wins build momentum and motivation",
		})
	}
	if pending > 10 {
		actions = append(actions, NextAction{
			Action:    "Review and prioritize your task list",
			Priority:  memory.PriorityMedium,
			Reasoning: "Large number of pending tasks - need organization",
		})
	}

	if len(actions) > limit {
		actions = actions[:limit]
	}
	return actions
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) countOverdue(tasks []memory.Task) int {
	today := e.now().Format("2006-01-02")
	n := 0
	for _, t := range tasks {
		if !t.Completed && t.DueDate != "" && t.DueDate < today {
			n++
		}
	}
	return n
}

func mostCommonTag(tasks []memory.Task) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	best, bestCount := "", 0
	for _, tag := range order {
		if counts[tag] > bestCount {
			best, bestCount = tag, counts[tag]
		}
	}
	return best, bestCount
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
