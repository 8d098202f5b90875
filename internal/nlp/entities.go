package nlp

import "regexp"

// entityRule maps one entity value to its whole-word keyword pattern.
// Rules are scanned in declaration order; the first hit wins.
type entityRule struct {
	value   string
	pattern *regexp.Regexp
}

var priorityRules = []entityRule{
	{PriorityHigh, regexp.MustCompile(`(?i)\b(?:urgent|critical|asap|emergency|high|important|priority)\b`)},
	{PriorityMedium, regexp.MustCompile(`(?i)\b(?:medium|normal|moderate)\b`)},
	{PriorityLow, regexp.MustCompile(`(?i)\b(?:low|minor|optional)\b`)},
}

var statusRules = []entityRule{
	{StatusCompleted, regexp.MustCompile(`(?i)\b(?:done|completed|finished|complete)\b`)},
	{StatusInProgress, regexp.MustCompile(`(?i)\b(?:in\s+progress|working|ongoing)\b`)},
	{StatusPending, regexp.MustCompile(`(?i)\b(?:pending|waiting|not\s+started)\b`)},
}

// extractPriority returns the first priority level whose keyword set hits,
// or "" when no priority word is present (caller supplies a default later).
func extractPriority(input string) string {
	for _, r := range priorityRules {
		if r.pattern.MatchString(input) {
			return r.value
		}
	}
	return ""
}

// extractStatus returns the first status whose keyword set hits, or "".
func extractStatus(input string) string {
	for _, r := range statusRules {
		if r.pattern.MatchString(input) {
			return r.value
		}
	}
	return ""
}
