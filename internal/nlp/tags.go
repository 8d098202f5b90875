package nlp

import (
	"regexp"
	"strings"
)

// implicitCategory binds a tag name to the keyword list that implies it.
// Declared as an ordered slice (not a map) so tag emission order is
// deterministic across runs.
type implicitCategory struct {
	name     string
	keywords []string
}

var implicitCategories = []implicitCategory{
	{"work", []string{"work", "job", "office", "meeting", "presentation", "client", "project", "deadline", "report", "email", "call", "conference"}},
	{"personal", []string{"personal", "home", "family", "friend", "relationship", "life"}},
	{"shopping", []string{"buy", "purchase", "shop", "grocery", "store", "market", "mall", "online"}},
	{"health", []string{"health", "medical", "doctor", "dentist", "exercise", "gym", "workout", "fitness", "wellness", "appointment"}},
	{"finance", []string{"money", "finance", "bank", "bill", "payment", "budget", "expense", "investment", "tax", "insurance"}},
	{"learning", []string{"learn", "study", "course", "book", "read", "education", "training", "skill", "knowledge", "research"}},
	{"travel", []string{"travel", "trip", "vacation", "flight", "hotel", "booking", "reservation", "destination"}},
	{"cleaning", []string{"clean", "organize", "tidy", "declutter", "laundry", "dishes", "housework"}},
	{"cooking", []string{"cook", "meal", "food", "recipe", "dinner", "lunch", "breakfast", "kitchen"}},
	{"entertainment", []string{"movie", "game", "music", "party", "event", "fun", "entertainment", "hobby"}},
	{"urgent", []string{"urgent", "asap", "emergency", "critical", "immediate", "rush"}},
	{"important", []string{"important", "priority", "key", "essential", "vital"}},
	{"routine", []string{"routine", "daily", "weekly", "monthly", "regular", "habit"}},
}

// specificItems are concrete nouns emitted verbatim as tags when present
// as substrings of the text.
var specificItems = []string{
	"groceries", "milk", "bread", "eggs", "vegetables", "fruits",
	"meeting", "call", "email", "presentation", "report",
	"exercise", "gym", "workout", "running", "yoga",
	"doctor", "dentist", "appointment", "checkup",
	"bill", "payment", "rent", "mortgage", "insurance",
	"book", "reading", "study", "course", "class",
	"cleaning", "laundry", "dishes", "organizing",
	"cooking", "meal", "dinner", "lunch", "breakfast",
}

// timeTagRule maps a time expression to the tag it contributes. Each rule
// is checked independently; several time tags can coexist on one input.
type timeTagRule struct {
	tag     string
	pattern *regexp.Regexp
}

var timeTagRules = []timeTagRule{
	{"today", regexp.MustCompile(`\btoday\b`)},
	{"tomorrow", regexp.MustCompile(`\btomorrow\b`)},
	{"this_week", regexp.MustCompile(`\bthis\s+week\b`)},
	{"next_week", regexp.MustCompile(`\bnext\s+week\b`)},
	{"this_month", regexp.MustCompile(`\bthis\s+month\b`)},
	{"next_month", regexp.MustCompile(`\bnext\s+month\b`)},
	{"weekend", regexp.MustCompile(`\bweekend\b`)},
	{"weekday", regexp.MustCompile(`\bweekday\b`)},
	{"morning", regexp.MustCompile(`\bmorning\b`)},
	{"afternoon", regexp.MustCompile(`\bafternoon\b`)},
	{"evening", regexp.MustCompile(`\bevening\b`)},
	{"night", regexp.MustCompile(`\bnight\b`)},
}

// extractTags unions explicit, implicit, and time-based tags, trims them,
// drops empties, and de-duplicates case-sensitively (first occurrence wins,
// so the result is deterministic for a given input).
func extractTags(input, title string) []string {
	var tags []string

	// 1. Explicit tags after a "tags:" / "category:" / "with tag(s)" marker.
	for _, p := range explicitTagPatterns {
		m := p.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		for _, tag := range strings.Split(m[1], ",") {
			tags = append(tags, strings.TrimSpace(tag))
		}
		break
	}

	lowerInput := strings.ToLower(input)
	lowerTitle := strings.ToLower(title)

	// 2. Implicit category tags from keywords in the text or title.
	for _, cat := range implicitCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lowerInput, kw) || strings.Contains(lowerTitle, kw) {
				tags = append(tags, cat.name)
				break
			}
		}
	}

	// 3. Specific items present as substrings.
	for _, item := range specificItems {
		if strings.Contains(lowerInput, item) || strings.Contains(lowerTitle, item) {
			tags = append(tags, item)
		}
	}

	// 4. Time-based tags.
	for _, r := range timeTagRules {
		if r.pattern.MatchString(lowerInput) {
			tags = append(tags, r.tag)
		}
	}

	return dedupeTags(tags)
}

// dedupeTags removes empty strings and case-sensitive duplicates while
// preserving first-occurrence order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
