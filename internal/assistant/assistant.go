// Package assistant wires the interpreter, task store, analytics, and
// suggestion engine into a single command loop. One Assistant serves one
// user; Process takes a line of input and returns the rendered response.
package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskmind/internal/analytics"
	"taskmind/internal/logging"
	"taskmind/internal/memory"
	"taskmind/internal/nlp"
	"taskmind/internal/suggest"
)

const searchLimit = 10

// Assistant executes commands for a single user.
type Assistant struct {
	store     *memory.Store
	parser    *nlp.Parser
	analyzer  *analytics.Analyzer
	suggester *suggest.Engine
	userID    string

	// lastListing maps display positions from the most recent listing to
	// task ids, so "task 3" can mean "the third task I just saw".
	lastListing []string

	now func() time.Time
}

// New returns an Assistant for the given user.
func New(store *memory.Store, userID string) *Assistant {
	return &Assistant{
		store:     store,
		parser:    nlp.NewParser(),
		analyzer:  analytics.NewAnalyzer(),
		suggester: suggest.NewEngine(),
		userID:    userID,
		now:       time.Now,
	}
}

// UserID returns the user this assistant is bound to.
func (a *Assistant) UserID() string { return a.userID }

// Statistics renders the basic statistics view.
func (a *Assistant) Statistics(ctx context.Context) string {
	return a.showStatistics(ctx)
}

// SwitchUser rebinds the assistant to another user's tasks.
func (a *Assistant) SwitchUser(userID string) {
	a.userID = userID
	a.lastListing = nil
}

// Process interprets one line of input and executes it. Natural language is
// tried first; input the interpreter cannot classify falls back to the
// traditional "command args" format.
func (a *Assistant) Process(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "Please enter a command. Type 'help' for available commands."
	}

	logging.AssistantDebug("process: %q", input)

	cmd := a.parser.Parse(input)
	if cmd.Category != nlp.CategoryUnknown {
		return a.executeParsed(ctx, cmd)
	}
	return a.traditional(ctx, input)
}

// =============================================================================
// NATURAL LANGUAGE EXECUTION
// =============================================================================

func (a *Assistant) executeParsed(ctx context.Context, cmd nlp.Command) string {
	var b strings.Builder
	b.WriteString(nlp.FormatResponse(cmd))
	b.WriteString("\n\n")

	switch cmd.Category {
	case nlp.CategoryAddTask:
		if cmd.Title == "" {
			b.WriteString("I couldn't understand the task title. Please try again.")
			break
		}
		task := &memory.Task{
			UserID:      a.userID,
			Title:       cmd.Title,
			Description: cmd.Description,
			Priority:    cmd.Priority,
			Tags:        cmd.Tags,
			DueDate:     cmd.DueDate,
		}
		if err := a.store.Add(ctx, task); err != nil {
			b.WriteString(fmt.Sprintf("Failed to add task: %v", err))
			break
		}
		b.WriteString(renderAdded(task))

	case nlp.CategorySearchTasks:
		if cmd.Query == "" {
			b.WriteString("I couldn't understand what you want to search for. Please try again.")
			break
		}
		results, err := a.store.Search(ctx, a.userID, cmd.Query, searchLimit)
		if err != nil {
			b.WriteString(fmt.Sprintf("Search failed: %v", err))
			break
		}
		b.WriteString(a.renderSearchResults(results, cmd.Query))

	case nlp.CategoryListTasks:
		tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
		if err != nil {
			b.WriteString(fmt.Sprintf("Failed to list tasks: %v", err))
			break
		}
		a.rememberListing(tasks)
		b.WriteString(a.renderTaskList(tasks))

	case nlp.CategoryUpdateTask:
		if !cmd.HasTaskID {
			b.WriteString("I couldn't understand which task to update. Please specify the task number.")
			break
		}
		task, note, err := a.resolveTask(ctx, cmd.TaskID)
		if err != nil {
			b.WriteString(a.renderTaskNotFound(ctx, cmd.TaskID))
			break
		}
		b.WriteString(note)
		field, value := cmd.Field, cmd.Value
		if field == "" {
			field, value = "status", memory.StatusCompleted
		}
		updated, err := a.store.UpdateField(ctx, a.userID, task.ID, field, value)
		if err != nil {
			b.WriteString(fmt.Sprintf("Failed to update task %d: %v", cmd.TaskID, err))
			break
		}
		b.WriteString(fmt.Sprintf("Task %d updated successfully!\n   Changed %s to: %s\n   Task: %s",
			cmd.TaskID, field, value, updated.Title))

	case nlp.CategoryDeleteTask:
		if !cmd.HasTaskID {
			b.WriteString("I couldn't understand which task to delete. Please specify the task number.")
			break
		}
		task, note, err := a.resolveTask(ctx, cmd.TaskID)
		if err != nil {
			b.WriteString(a.renderTaskNotFound(ctx, cmd.TaskID))
			break
		}
		b.WriteString(note)
		if err := a.store.Delete(ctx, a.userID, task.ID); err != nil {
			b.WriteString(fmt.Sprintf("Failed to delete task %d: %v", cmd.TaskID, err))
			break
		}
		b.WriteString(fmt.Sprintf("Task %d deleted successfully!\n   Deleted: %s", cmd.TaskID, task.Title))

	case nlp.CategoryShowStats:
		b.WriteString(a.showAnalytics(ctx))
	}

	return b.String()
}

// resolveTask maps a display position from the interpreter to a stored task.
// Positions refer to the most recent listing when one exists, otherwise to
// the current list order.
func (a *Assistant) resolveTask(ctx context.Context, position int) (*memory.Task, string, error) {
	if position >= 1 && position <= len(a.lastListing) {
		task, err := a.store.Get(ctx, a.userID, a.lastListing[position-1])
		if err == nil {
			return task, fmt.Sprintf("Found task at position %d (ID: %s)\n", position, task.ID), nil
		}
	}

	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return nil, "", err
	}
	if position < 1 || position > len(tasks) {
		return nil, "", memory.ErrNotFound
	}
	task := tasks[position-1]
	return &task, fmt.Sprintf("Found task at position %d (ID: %s)\n", position, task.ID), nil
}

func (a *Assistant) renderTaskNotFound(ctx context.Context, position int) string {
	count, err := a.store.Count(ctx, a.userID)
	if err != nil || count == 0 {
		return fmt.Sprintf("Task %d not found. No tasks available.", position)
	}
	return fmt.Sprintf("Task %d not found. You have %d tasks; use 'list' to see their positions.", position, count)
}

func (a *Assistant) rememberListing(tasks []memory.Task) {
	a.lastListing = make([]string, len(tasks))
	for i, t := range tasks {
		a.lastListing[i] = t.ID
	}
}

// =============================================================================
// TRADITIONAL COMMANDS
// =============================================================================

func (a *Assistant) traditional(ctx context.Context, input string) string {
	command, args, _ := strings.Cut(input, " ")
	command = strings.ToLower(command)
	args = strings.TrimSpace(args)

	switch command {
	case "add":
		return a.addTask(ctx, args)
	case "search":
		return a.searchTasks(ctx, args)
	case "list":
		return a.listTasks(ctx, args)
	case "update":
		return a.updateTask(ctx, args)
	case "delete":
		return a.deleteTask(ctx, args)
	case "complete":
		return a.completeTask(ctx, args)
	case "stats":
		return a.showStatistics(ctx)
	case "analytics":
		return a.showAnalytics(ctx)
	case "insights":
		return a.showInsights(ctx)
	case "weekly":
		return a.showWeekly(ctx)
	case "due":
		return a.showDue(ctx)
	case "suggest", "recommendations":
		return a.showSuggestions(ctx)
	case "help":
		return helpText
	case "quit", "exit":
		return "Goodbye! Your tasks have been saved."
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", command)
	}
}

// addTask handles the pipe format: title | description | priority | tags | due.
func (a *Assistant) addTask(ctx context.Context, args string) string {
	if args == "" {
		return "Usage: add <title> | [description] | [priority] | [tags] | [due_date]"
	}

	parts := strings.Split(args, "|")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}

	title := field(0)
	if title == "" {
		return "Task title is required."
	}

	priority := field(2)
	switch priority {
	case memory.PriorityLow, memory.PriorityMedium, memory.PriorityHigh:
	default:
		priority = memory.PriorityMedium
	}

	var tags []string
	for _, tag := range strings.Split(field(3), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	dueDate := field(4)
	if dueDate != "" {
		if _, err := time.Parse("2006-01-02", dueDate); err != nil {
			return "Invalid due date format. Please use YYYY-MM-DD format."
		}
	}

	task := &memory.Task{
		UserID:      a.userID,
		Title:       title,
		Description: field(1),
		Priority:    priority,
		Tags:        tags,
		DueDate:     dueDate,
	}
	if err := a.store.Add(ctx, task); err != nil {
		return fmt.Sprintf("Failed to add task: %v", err)
	}
	return renderAdded(task)
}

func (a *Assistant) searchTasks(ctx context.Context, args string) string {
	if args == "" {
		return "Usage: search <query>"
	}
	results, err := a.store.Search(ctx, a.userID, args, searchLimit)
	if err != nil {
		return fmt.Sprintf("Search failed: %v", err)
	}
	return a.renderSearchResults(results, args)
}

// listTasks supports "priority:high tag:work status:completed due:overdue"
// filter arguments.
func (a *Assistant) listTasks(ctx context.Context, args string) string {
	filter := memory.Filter{}
	var due string
	for _, part := range strings.Fields(args) {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch key {
		case "priority":
			filter.Priority = value
		case "tag":
			filter.Tag = value
		case "status":
			filter.Status = value
		case "due":
			due = strings.ToLower(value)
		}
	}

	tasks, err := a.store.List(ctx, a.userID, filter)
	if err != nil {
		return fmt.Sprintf("Failed to list tasks: %v", err)
	}

	today := a.now().Format("2006-01-02")
	switch due {
	case "overdue":
		tasks = filterDue(tasks, func(d string) bool { return d < today })
	case "today":
		tasks = filterDue(tasks, func(d string) bool { return d == today })
	}

	a.rememberListing(tasks)
	return a.renderTaskList(tasks)
}

func filterDue(tasks []memory.Task, keep func(string) bool) []memory.Task {
	var out []memory.Task
	for _, t := range tasks {
		if t.DueDate != "" && keep(t.DueDate) {
			out = append(out, t)
		}
	}
	return out
}

// updateTask handles "update <id-or-position> field=value [field=value ...]".
func (a *Assistant) updateTask(ctx context.Context, args string) string {
	const usage = "Usage: update <task> <field>=<value> [field2=value2 ...]"
	ref, rest, ok := strings.Cut(args, " ")
	if args == "" || !ok {
		return usage
	}

	task, note, err := a.lookupTask(ctx, ref)
	if err != nil {
		return fmt.Sprintf("Task %s not found.", ref)
	}

	updated := 0
	for _, part := range strings.Fields(rest) {
		field, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch field {
		case "priority":
			if value != memory.PriorityLow && value != memory.PriorityMedium && value != memory.PriorityHigh {
				return fmt.Sprintf("Invalid priority: %s. Must be low, medium, or high.", value)
			}
		case "status":
			if value != memory.StatusPending && value != memory.StatusInProgress && value != memory.StatusCompleted {
				return fmt.Sprintf("Invalid status: %s. Must be pending, in_progress, or completed.", value)
			}
		}
		if _, err := a.store.UpdateField(ctx, a.userID, task.ID, field, value); err != nil {
			return fmt.Sprintf("Failed to update %s: %v", field, err)
		}
		updated++
	}
	if updated == 0 {
		return "No valid updates provided."
	}
	return note + fmt.Sprintf("Task %s updated successfully!", ref)
}

func (a *Assistant) deleteTask(ctx context.Context, args string) string {
	if args == "" {
		return "Usage: delete <task>"
	}
	task, note, err := a.lookupTask(ctx, strings.TrimSpace(args))
	if err != nil {
		return fmt.Sprintf("Task %s not found.", args)
	}
	if err := a.store.Delete(ctx, a.userID, task.ID); err != nil {
		return fmt.Sprintf("Failed to delete task: %v", err)
	}
	return note + fmt.Sprintf("Task %s deleted successfully!", args)
}

func (a *Assistant) completeTask(ctx context.Context, args string) string {
	if args == "" {
		return "Usage: complete <task>"
	}
	task, note, err := a.lookupTask(ctx, strings.TrimSpace(args))
	if err != nil {
		return fmt.Sprintf("Task %s not found.", args)
	}
	if task.Completed {
		return fmt.Sprintf("Task %s is already completed.", args)
	}
	if _, err := a.store.UpdateField(ctx, a.userID, task.ID, "status", memory.StatusCompleted); err != nil {
		return fmt.Sprintf("Failed to complete task: %v", err)
	}
	return note + fmt.Sprintf("Task %s marked as completed!", args)
}

// lookupTask resolves a task reference that is either a task id or a
// 1-indexed display position.
func (a *Assistant) lookupTask(ctx context.Context, ref string) (*memory.Task, string, error) {
	if position, err := strconv.Atoi(ref); err == nil {
		return a.resolveTask(ctx, position)
	}
	task, err := a.store.Get(ctx, a.userID, ref)
	if err != nil {
		return nil, "", err
	}
	return task, "", nil
}

func (a *Assistant) showStatistics(ctx context.Context) string {
	stats, err := a.store.Statistics(ctx, a.userID)
	if err != nil {
		return fmt.Sprintf("Failed to load statistics: %v", err)
	}
	return renderStatistics(stats)
}

func (a *Assistant) showAnalytics(ctx context.Context) string {
	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return fmt.Sprintf("Failed to load tasks: %v", err)
	}
	return renderAnalytics(a.analyzer.Analyze(tasks))
}

func (a *Assistant) showInsights(ctx context.Context) string {
	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return fmt.Sprintf("Failed to load tasks: %v", err)
	}
	return renderInsights(a.analyzer.Analyze(tasks))
}

func (a *Assistant) showWeekly(ctx context.Context) string {
	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return fmt.Sprintf("Failed to load tasks: %v", err)
	}
	return renderWeekly(a.analyzer.Weekly(tasks))
}

func (a *Assistant) showDue(ctx context.Context) string {
	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return fmt.Sprintf("Failed to load tasks: %v", err)
	}
	return a.renderDue(tasks, a.analyzer.Due(tasks))
}

func (a *Assistant) showSuggestions(ctx context.Context) string {
	tasks, err := a.store.List(ctx, a.userID, memory.Filter{})
	if err != nil {
		return fmt.Sprintf("Failed to load tasks: %v", err)
	}
	suggestions, err := a.suggester.Suggest(ctx, tasks, 5)
	if err != nil {
		return fmt.Sprintf("Failed to generate suggestions: %v", err)
	}
	return renderSuggestions(suggestions)
}
