package nlp

import (
	"strconv"
	"strings"
	"time"

	"taskmind/internal/logging"
)

// Parser converts free-form input into Commands. The zero value is not
// usable; construct with NewParser. Parsers hold no mutable state and are
// safe for concurrent use.
type Parser struct {
	// now supplies the anchor date for relative due-date resolution.
	// Overridden in tests to pin the anchor.
	now func() time.Time
}

// NewParser returns a Parser anchored to the real clock.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// newParserAt returns a Parser with a fixed anchor date, for tests.
func newParserAt(anchor time.Time) *Parser {
	return &Parser{now: func() time.Time { return anchor }}
}

// defaultParser backs the package-level Parse.
var defaultParser = NewParser()

// Parse converts one user input into a Command using the default parser.
func Parse(input string) Command {
	return defaultParser.Parse(input)
}

// Parse converts one user input into a Command. It never panics on user
// input: unrecognized text yields CategoryUnknown with an error message,
// and malformed captured fields yield a Command with the field absent.
func (p *Parser) Parse(input string) Command {
	input = strings.TrimSpace(input)

	logging.NLPDebug("parsing input: %q", input)

	// Try the pattern library first: categories in fixed order, rules in
	// fixed order, return on first match.
	for _, cr := range commandPatterns {
		for i, rule := range cr.rules {
			m := rule.FindStringSubmatch(input)
			if m == nil {
				continue
			}
			logging.NLPDebug("matched pattern %d for category %q", i, cr.category)
			return p.buildCommand(cr.category, input, m)
		}
	}

	// No pattern fired: fall back to keyword inference.
	logging.NLPDebug("no pattern match, trying keyword inference")
	return p.inferCommand(input)
}

// buildCommand assembles the Command for a pattern-rule match.
func (p *Parser) buildCommand(category Category, input string, m []string) Command {
	cmd := Command{
		Category:   category,
		Confidence: 0.9,
		RawInput:   input,
	}

	p.extractEntities(&cmd, input)

	switch category {
	case CategoryAddTask:
		p.buildAddDetails(&cmd, input, m)
	case CategorySearchTasks:
		buildSearchDetails(&cmd, m)
	case CategoryUpdateTask:
		buildUpdateDetails(&cmd, input, m)
	case CategoryDeleteTask:
		buildDeleteDetails(&cmd, m)
	}

	return cmd
}

// extractEntities enriches the command with priority, status, and due date.
// Each extractor is independent of the matched category.
func (p *Parser) extractEntities(cmd *Command, input string) {
	cmd.Priority = extractPriority(input)
	cmd.Status = extractStatus(input)

	if date, matched := parseDueDate(strings.ToLower(input), p.now()); matched && date != "" {
		cmd.DueDate = date
	}
}

// buildAddDetails fills the title, description, and tags for add_task.
func (p *Parser) buildAddDetails(cmd *Command, input string, m []string) {
	if len(m) > 1 {
		cmd.Title = m[1]
	}

	// Description from explicit markers, up to the next comma.
	for _, pat := range descriptionPatterns {
		if dm := pat.FindStringSubmatch(input); dm != nil {
			cmd.Description = strings.TrimSpace(dm[1])
			break
		}
	}

	cmd.Tags = extractTags(input, cmd.Title)
}

// buildSearchDetails fills the query for search_tasks.
func buildSearchDetails(cmd *Command, m []string) {
	if len(m) > 1 {
		cmd.Query = m[1]
	}
}

// updateFieldRules is checked in fixed priority order to decide which task
// field an update targets; status is the default.
var updateFieldRules = []struct {
	field    string
	keywords []string
}{
	{"priority", []string{"priority", "important"}},
	{"title", []string{"title", "name"}},
	{"description", []string{"description", "desc"}},
}

// buildUpdateDetails fills task id, target field, and normalized value.
func buildUpdateDetails(cmd *Command, input string, m []string) {
	if len(m) > 1 {
		setTaskID(cmd, m[1])
	}

	rawValue := ""
	if len(m) > 2 {
		rawValue = m[2]
	}

	cmd.Field = inferUpdateField(input)
	cmd.Value = normalizeUpdateValue(cmd.Field, rawValue)
}

func inferUpdateField(input string) string {
	lower := strings.ToLower(input)
	for _, r := range updateFieldRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.field
			}
		}
	}
	return "status"
}

// normalizeUpdateValue maps a raw captured value onto the canonical value
// set for the target field. Unrecognized status words collapse to pending
// and unrecognized priority words to medium.
func normalizeUpdateValue(field, raw string) string {
	lower := strings.ToLower(raw)
	switch field {
	case "status":
		if containsAny(lower, "complete", "done", "finish") {
			return StatusCompleted
		}
		if containsAny(lower, "progress", "working") {
			return StatusInProgress
		}
		return StatusPending
	case "priority":
		if containsAny(lower, "high", "urgent", "important") {
			return PriorityHigh
		}
		if containsAny(lower, "low", "minor") {
			return PriorityLow
		}
		return PriorityMedium
	}
	return raw
}

// buildDeleteDetails fills the task id for delete_task.
func buildDeleteDetails(cmd *Command, m []string) {
	if len(m) > 1 {
		setTaskID(cmd, m[1])
	}
}

// setTaskID converts a captured numeric group. Conversion failure leaves
// HasTaskID false so the caller can ask for clarification instead of
// crashing.
func setTaskID(cmd *Command, raw string) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		logging.NLP("could not parse task id from %q: %v", raw, err)
		return
	}
	cmd.TaskID = id
	cmd.HasTaskID = true
}

// inferCommand is the keyword fallback: the first indicator list with any
// keyword present wins.
func (p *Parser) inferCommand(input string) Command {
	lower := strings.ToLower(input)

	for _, rule := range inferenceRules {
		if !containsAny(lower, rule.keywords...) {
			continue
		}

		cmd := Command{
			Category:   rule.category,
			Confidence: rule.confidence,
			RawInput:   input,
		}
		p.extractEntities(&cmd, input)

		switch rule.category {
		case CategoryAddTask:
			cmd.Title = inferTitle(input)
			cmd.Tags = extractTags(input, cmd.Title)
		case CategorySearchTasks:
			cmd.Query = inferQuery(input)
		}
		return cmd
	}

	return Command{
		Category:   CategoryUnknown,
		Confidence: 0.0,
		RawInput:   input,
		Err:        "Could not understand command",
	}
}

var (
	titleStopWords = map[string]bool{
		"add": true, "create": true, "new": true, "task": true, "a": true, "an": true,
	}
	queryStopWords = map[string]bool{
		"find": true, "search": true, "look": true, "for": true,
		"show": true, "me": true, "tasks": true, "about": true,
	}
)

// inferTitle prefers the first quoted substring; otherwise it takes the
// first three words left after stripping command stop-words.
func inferTitle(input string) string {
	if m := quotedTextPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}

	var meaningful []string
	for _, w := range strings.Fields(input) {
		if !titleStopWords[strings.ToLower(w)] {
			meaningful = append(meaningful, w)
		}
	}
	if len(meaningful) == 0 {
		return input
	}
	if len(meaningful) > 3 {
		meaningful = meaningful[:3]
	}
	return strings.Join(meaningful, " ")
}

// inferQuery strips command stop-words and joins the remainder.
func inferQuery(input string) string {
	var words []string
	for _, w := range strings.Fields(input) {
		if !queryStopWords[strings.ToLower(w)] {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
