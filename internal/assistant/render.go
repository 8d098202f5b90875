package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskmind/internal/analytics"
	"taskmind/internal/memory"
	"taskmind/internal/suggest"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	priorityStyles = map[string]lipgloss.Style{
		memory.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		memory.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		memory.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

func stylePriority(priority string) string {
	style, ok := priorityStyles[priority]
	if !ok {
		return strings.ToUpper(priority)
	}
	return style.Render(strings.ToUpper(priority))
}

func statusIcon(t *memory.Task) string {
	if t.Completed {
		return "[done]"
	}
	return "[open]"
}

// =============================================================================
// TASK RENDERING
// =============================================================================

func renderAdded(t *memory.Task) string {
	var b strings.Builder
	b.WriteString("Task added successfully! ID: " + t.ID + "\n")
	b.WriteString("Title: " + t.Title + "\n")
	b.WriteString("Priority: " + t.Priority)
	if len(t.Tags) > 0 {
		b.WriteString("\nTags: " + strings.Join(t.Tags, ", "))
	}
	return b.String()
}

func (a *Assistant) renderTaskList(tasks []memory.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Task List (%d tasks)", len(tasks))))
	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")

	for i, t := range tasks {
		t := t
		b.WriteString(fmt.Sprintf("%2d. %s %s\n", i+1, statusIcon(&t), titleStyle.Render(t.Title)))
		b.WriteString("    " + labelStyle.Render("ID:") + " " + t.ID + "\n")
		if t.Description != "" {
			b.WriteString("    " + labelStyle.Render("Description:") + " " + t.Description + "\n")
		}
		b.WriteString("    " + labelStyle.Render("Priority:") + " " + stylePriority(t.Priority) + "\n")
		if len(t.Tags) > 0 {
			styled := make([]string, len(t.Tags))
			for j, tag := range t.Tags {
				styled[j] = tagStyle.Render("#" + tag)
			}
			b.WriteString("    " + labelStyle.Render("Tags:") + " " + strings.Join(styled, ", ") + "\n")
		}
		if due := a.renderDueDate(&t); due != "" {
			b.WriteString("    " + due + "\n")
		}
		if !t.CreatedAt.IsZero() {
			b.WriteString("    " + faintStyle.Render("Created: "+t.CreatedAt.Format("2006-01-02 15:04")) + "\n")
		}
		b.WriteString(strings.Repeat("-", 60) + "\n")
	}

	b.WriteString("Tip: commands like 'complete 2' refer to the list positions above.\n")
	return b.String()
}

func (a *Assistant) renderDueDate(t *memory.Task) string {
	if t.DueDate == "" {
		return ""
	}
	due, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return overdueStyle.Render("Due: " + t.DueDate + " (invalid)")
	}

	today := a.now().Truncate(24 * time.Hour)
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case t.Completed:
		return faintStyle.Render("Due: " + t.DueDate + " (completed)")
	case days < 0:
		return overdueStyle.Render("Due: " + t.DueDate + " (OVERDUE)")
	case days == 0:
		return todayStyle.Render("Due: " + t.DueDate + " (TODAY)")
	case days <= 3:
		return todayStyle.Render("Due: " + t.DueDate + " (soon)")
	default:
		return upcomingStyle.Render("Due: " + t.DueDate)
	}
}

func (a *Assistant) renderSearchResults(results []memory.SearchResult, query string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No tasks found matching '%s'", query)
	}

	tasks := make([]memory.Task, len(results))
	for i, r := range results {
		tasks[i] = r.Task
	}
	a.rememberListing(tasks)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Found %d tasks matching '%s':\n\n", len(results), query))
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. [ID: %s] %s (Score: %.3f)\n", i+1, r.Task.ID, titleStyle.Render(r.Task.Title), r.Similarity))
		if r.Task.Description != "" {
			b.WriteString("   Description: " + r.Task.Description + "\n")
		}
		b.WriteString("   Priority: " + r.Task.Priority + ", Status: " + r.Task.Status + "\n")
		if len(r.Task.Tags) > 0 {
			b.WriteString("   Tags: " + strings.Join(r.Task.Tags, ", ") + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// REPORT RENDERING
// =============================================================================

func renderStatistics(stats *memory.Stats) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("=== Task Statistics ===") + "\n")
	b.WriteString(fmt.Sprintf("Total tasks: %d\n\n", stats.Total))

	if len(stats.ByStatus) > 0 {
		b.WriteString("By Status:\n")
		for _, status := range sortedKeys(stats.ByStatus) {
			b.WriteString(fmt.Sprintf("  %s: %d\n", status, stats.ByStatus[status]))
		}
		b.WriteString("\n")
	}
	if len(stats.ByPriority) > 0 {
		b.WriteString("By Priority:\n")
		for _, priority := range sortedKeys(stats.ByPriority) {
			b.WriteString(fmt.Sprintf("  %s: %d\n", priority, stats.ByPriority[priority]))
		}
	}
	return b.String()
}

func renderAnalytics(r *analytics.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("=== COMPREHENSIVE TASK ANALYTICS ===") + "\n\n")

	b.WriteString(labelStyle.Render("BASIC STATISTICS") + "\n")
	b.WriteString(fmt.Sprintf("Total Tasks: %d\n", r.Basic.TotalTasks))
	b.WriteString(fmt.Sprintf("Average Title Length: %.1f characters\n", r.Basic.AvgTitleLength))
	b.WriteString(fmt.Sprintf("Tasks with Descriptions: %d\n", r.Basic.TasksWithDescription))
	b.WriteString(fmt.Sprintf("Tasks with Tags: %d\n\n", r.Basic.TasksWithTags))

	if len(r.Priority.Distribution) > 0 {
		b.WriteString(labelStyle.Render("PRIORITY ANALYSIS") + "\n")
		for _, priority := range sortedKeys(r.Priority.Distribution) {
			b.WriteString(fmt.Sprintf("%s: %d (%.1f%%)\n", titleCase(priority), r.Priority.Distribution[priority], r.Priority.Percentages[priority]))
		}
		b.WriteString(fmt.Sprintf("Priority Balance: %s\n\n", r.Priority.Balance))
	}

	if len(r.Status.Distribution) > 0 {
		b.WriteString(labelStyle.Render("STATUS ANALYSIS") + "\n")
		for _, status := range sortedKeys(r.Status.Distribution) {
			b.WriteString(fmt.Sprintf("%s: %d (%.1f%%)\n", titleCase(status), r.Status.Distribution[status], r.Status.Percentages[status]))
		}
		b.WriteString(fmt.Sprintf("Completion Rate: %.1f%%\n\n", r.Status.CompletionRate))
	}

	if r.Basic.TotalTasks > 0 {
		b.WriteString(labelStyle.Render("PRODUCTIVITY METRICS") + "\n")
		b.WriteString(fmt.Sprintf("Average Daily Tasks: %.1f\n", r.Productivity.AvgDailyTasks))
		b.WriteString(fmt.Sprintf("Productivity Score: %.1f/100\n", r.Productivity.ProductivityScore))
		b.WriteString(fmt.Sprintf("Average Task Complexity: %.2f\n\n", r.Productivity.AvgTaskComplexity))
	}

	if len(r.Tags.MostCommonTags) > 0 {
		b.WriteString(labelStyle.Render("TAG ANALYSIS") + "\n")
		b.WriteString("Most Common Tags:\n")
		for _, tc := range r.Tags.MostCommonTags {
			b.WriteString(fmt.Sprintf("  %s: %d\n", tc.Tag, tc.Count))
		}
		b.WriteString(fmt.Sprintf("Tag Usage: %.1f%%\n", r.Tags.TagUsagePercentage))
	}
	return b.String()
}

func renderInsights(r *analytics.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("=== ACTIONABLE INSIGHTS & RECOMMENDATIONS ===") + "\n\n")

	if len(r.Insights) > 0 {
		b.WriteString(labelStyle.Render("INSIGHTS") + "\n")
		for _, insight := range r.Insights {
			b.WriteString("- " + insight + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.Recommendations) > 0 {
		b.WriteString(labelStyle.Render("RECOMMENDATIONS") + "\n")
		for _, rec := range r.Recommendations {
			b.WriteString("- " + rec + "\n")
		}
	}
	return b.String()
}

func renderWeekly(r *analytics.WeeklyReport) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("=== WEEKLY PRODUCTIVITY REPORT ===") + "\n\n")
	b.WriteString("Period: " + r.Period + "\n")
	b.WriteString(fmt.Sprintf("Tasks Created: %d\n", r.TasksCreated))
	b.WriteString(fmt.Sprintf("Tasks Completed: %d\n", r.TasksCompleted))
	b.WriteString(fmt.Sprintf("Completion Rate: %.1f%%\n", r.CompletionRate))
	b.WriteString("Most Productive Day: " + r.MostProductiveDay + "\n")

	if len(r.PriorityBreakdown) > 0 {
		b.WriteString("\nPriority Distribution:\n")
		for _, priority := range sortedKeys(r.PriorityBreakdown) {
			b.WriteString(fmt.Sprintf("  %s: %d\n", titleCase(priority), r.PriorityBreakdown[priority]))
		}
	}
	if len(r.TopTags) > 0 {
		b.WriteString("\nTop Tags This Week:\n")
		for _, tc := range r.TopTags {
			b.WriteString(fmt.Sprintf("  %s: %d\n", tc.Tag, tc.Count))
		}
	}
	return b.String()
}

func (a *Assistant) renderDue(tasks []memory.Task, buckets analytics.DueBuckets) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}

	active := 0
	for _, t := range tasks {
		if !t.Completed {
			active++
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Due Date Statistics") + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("Summary:\n")
	b.WriteString(fmt.Sprintf("   Overdue: %d tasks\n", len(buckets.Overdue)))
	b.WriteString(fmt.Sprintf("   Due today: %d tasks\n", len(buckets.DueToday)))
	b.WriteString(fmt.Sprintf("   Due soon (3 days): %d tasks\n", len(buckets.DueSoon)))
	b.WriteString(fmt.Sprintf("   Total active: %d tasks\n", active))

	section := func(name string, style lipgloss.Style, group []memory.Task) {
		if len(group) == 0 {
			return
		}
		b.WriteString("\n" + style.Render(fmt.Sprintf("%s (%d):", name, len(group))) + "\n")
		for i, t := range group {
			b.WriteString(fmt.Sprintf("%d. %s (due %s)\n", i+1, style.Render(t.Title), t.DueDate))
			b.WriteString("   Priority: " + strings.ToUpper(t.Priority) + "\n")
			if len(t.Tags) > 0 {
				b.WriteString("   Tags: " + strings.Join(t.Tags, ", ") + "\n")
			}
		}
	}
	section("OVERDUE TASKS", overdueStyle, buckets.Overdue)
	section("DUE TODAY", todayStyle, buckets.DueToday)
	section("DUE SOON", upcomingStyle, buckets.DueSoon)

	return b.String()
}

func renderSuggestions(suggestions []suggest.Suggestion) string {
	if len(suggestions) == 0 {
		return "No smart suggestions available. Add more tasks to get recommendations."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("=== SMART TASK SUGGESTIONS ===") + "\n\n")
	for i, s := range suggestions {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, titleStyle.Render(s.Title)))
		b.WriteString("   " + s.Description + "\n")
		b.WriteString("   Priority: " + titleCase(s.Priority))
		if len(s.Tags) > 0 {
			b.WriteString(" | Tags: " + strings.Join(s.Tags, ", "))
		}
		b.WriteString("\n   Reasoning: " + s.Reasoning + "\n\n")
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const helpText = `=== Task Assistant Commands ===

NATURAL LANGUAGE
You can phrase most things naturally:
  "add a high priority task to buy groceries tomorrow"
  "search for meeting tasks"
  "mark task 5 as completed"
  "show me my task stats"

TRADITIONAL COMMANDS

add <title> | [description] | [priority] | [tags] | [due_date]
  Priority: low, medium, high (default: medium)
  Tags: comma-separated; due date: YYYY-MM-DD
  Example: add Buy groceries | Milk and bread | high | shopping | 2026-09-01

search <query>
  Semantic search over your tasks.

list [filters]
  Filters: priority:high tag:work status:completed due:overdue due:today

update <task> <field>=<value> [...]
  Fields: title, description, priority, status, due_date
  <task> is a list position or a task id.

delete <task>
complete <task>

stats       Basic counts by status and priority.
analytics   Detailed analytics and trends.
insights    Insights and recommendations.
weekly      Weekly progress report.
due         Due date overview.
suggest     Smart task suggestions.
help        This message.
quit/exit   Leave the assistant.

NATURAL LANGUAGE DUE DATES
  today, tomorrow, next week, next friday, in 3 days, in 2 weeks,
  december 15, 12/15/2026, end of week, end of month
`
