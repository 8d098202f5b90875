package nlp

import "regexp"

// categoryRules binds one command category to its ordered pattern list.
// Both the category order and the per-category rule order are part of the
// interpreter contract: earlier entries win ties, and the generic catch-all
// patterns (e.g. `add a task about (.+)`) must come after the quoted-title
// patterns so quoted titles are preferred over catch-all captures.
type categoryRules struct {
	category Category
	rules    []*regexp.Regexp
}

// commandPatterns is evaluated top to bottom; the first matching rule wins
// and no further categories or rules are tried.
//
// Every pattern here must be linear-time under RE2 semantics. Character
// classes like [^"']+ are used instead of dot-star to keep captures anchored
// to the quoted region.
var commandPatterns = []categoryRules{
	{CategoryAddTask, compileAll(
		`add\s+(?:a\s+)?(?:new\s+)?task\s+(?:called\s+)?["']([^"']+)["']`,
		`create\s+(?:a\s+)?(?:new\s+)?task\s+(?:called\s+)?["']([^"']+)["']`,
		`new\s+task\s+(?:called\s+)?["']([^"']+)["']`,
		`add\s+["']([^"']+)["']\s+to\s+my\s+tasks`,
		`add\s+(?:a\s+)?task\s+(?:about\s+)?(.+)`,
		`create\s+(?:a\s+)?task\s+(?:about\s+)?(.+)`,
	)},
	{CategorySearchTasks, compileAll(
		`search\s+(?:for\s+)?["']([^"']+)["']`,
		`find\s+(?:tasks\s+)?(?:about\s+)?["']([^"']+)["']`,
		`look\s+for\s+(?:tasks\s+)?(?:about\s+)?["']([^"']+)["']`,
		`show\s+me\s+(?:tasks\s+)?(?:about\s+)?["']([^"']+)["']`,
		`search\s+(?:for\s+)?(.+)`,
		`find\s+(?:tasks\s+)?(?:about\s+)?(.+)`,
	)},
	{CategoryListTasks, compileAll(
		`list\s+(?:all\s+)?tasks`,
		`show\s+(?:all\s+)?tasks`,
		`display\s+(?:all\s+)?tasks`,
		`what\s+tasks\s+do\s+i\s+have`,
		`my\s+tasks`,
		`all\s+tasks`,
	)},
	{CategoryUpdateTask, compileAll(
		`(?:mark|set)\s+task\s+(\d+)\s+as\s+(\w+)`,
		`update\s+task\s+(\d+)\s+to\s+(\w+)`,
		`change\s+task\s+(\d+)\s+to\s+(\w+)`,
		`task\s+(\d+)\s+is\s+now\s+(\w+)`,
		`mark\s+(\d+)\s+as\s+(\w+)`,
		`complete\s+task\s+(\d+)`,
		`finish\s+task\s+(\d+)`,
		`update\s+(\d+)\s+to\s+(\w+)`,
		`change\s+(\d+)\s+to\s+(\w+)`,
		`set\s+(\d+)\s+to\s+(\w+)`,
		`set\s+task\s+(\d+)\s+to\s+(\w+)`,
		`change\s+(\d+)\s+priority\s+to\s+(\w+)`,
		`update\s+(\d+)\s+priority\s+to\s+(\w+)`,
		`set\s+(\d+)\s+priority\s+to\s+(\w+)`,
		`mark\s+(\d+)\s+priority\s+as\s+(\w+)`,
	)},
	{CategoryDeleteTask, compileAll(
		`delete\s+task\s+(\d+)`,
		`remove\s+task\s+(\d+)`,
		`cancel\s+task\s+(\d+)`,
		`drop\s+task\s+(\d+)`,
		`delete\s+(\d+)`,
		`remove\s+(\d+)`,
	)},
	{CategoryShowStats, compileAll(
		`show\s+(?:task\s+)?statistics`,
		`display\s+(?:task\s+)?stats`,
		`what\s+are\s+my\s+task\s+stats`,
		`give\s+me\s+a\s+summary`,
		`stats`,
		`statistics`,
	)},
}

// compileAll compiles patterns case-insensitively. Matching runs against the
// original input so capture groups preserve the user's casing; Python-era
// behavior lower-cased captures, which broke quoted-title fidelity.
func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// inferenceRule is one keyword list tried during the fallback stage.
type inferenceRule struct {
	category   Category
	confidence float64
	keywords   []string
}

// inferenceRules is checked in fixed priority order; the first list with
// any keyword present in the lower-cased input wins.
var inferenceRules = []inferenceRule{
	{CategoryAddTask, 0.7, []string{"add", "create", "new", "make"}},
	{CategorySearchTasks, 0.7, []string{"find", "search", "look", "show"}},
	{CategoryListTasks, 0.8, []string{"list", "all", "tasks"}},
	{CategoryShowStats, 0.8, []string{"stats", "statistics", "summary"}},
}

// Secondary extraction patterns used by the detail builders.
var (
	descriptionPatterns = compileAll(
		`description[:\s]+([^,]+)`,
		`about[:\s]+([^,]+)`,
		`for[:\s]+([^,]+)`,
	)

	// Explicit tag lists capture through commas so "tags: work, home"
	// yields both tags after the comma-split.
	explicitTagPatterns = compileAll(
		`tags?[:\s]+(.+)`,
		`category[:\s]+(.+)`,
		`with\s+tags?\s+(.+)`,
	)

	quotedTextPattern = regexp.MustCompile(`["']([^"']+)["']`)
)
