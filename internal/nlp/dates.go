package nlp

import (
	"regexp"
	"strconv"
	"time"
)

// isoDate is the wire format for all resolved due dates.
const isoDate = "2006-01-02"

// weekdayIndex returns Monday=0 .. Sunday=6, the convention all the
// relative-week arithmetic below is written in.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

var weekdayNames = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// dateRule is one link in the due-date chain. resolve may return ok=false
// for phrases that match but resolve to "no date" (e.g. a weekday earlier
// this week); the chain still stops there.
type dateRule struct {
	pattern *regexp.Regexp
	resolve func(anchor time.Time, m []string) (string, bool)
}

func fixedOffset(days int) func(time.Time, []string) (string, bool) {
	return func(anchor time.Time, _ []string) (string, bool) {
		return anchor.AddDate(0, 0, days).Format(isoDate), true
	}
}

// dueDateRules is a first-match-wins chain: once a rule's pattern matches,
// no further rules are tried, even if the rule resolves to no date. The
// ordering mirrors the precedence contract: literal day words, time-of-day
// phrases, week/month/period references, weekday references, "in N units",
// then absolute dates.
var dueDateRules = []dateRule{
	// Literal day words
	{regexp.MustCompile(`\btoday\b`), fixedOffset(0)},
	{regexp.MustCompile(`\btomorrow\b`), fixedOffset(1)},
	{regexp.MustCompile(`\byesterday\b`), fixedOffset(-1)},

	// Time of day resolves to today's date; the time component is discarded.
	{regexp.MustCompile(`\bthis\s+morning\b`), fixedOffset(0)},
	{regexp.MustCompile(`\bthis\s+afternoon\b`), fixedOffset(0)},
	{regexp.MustCompile(`\bthis\s+evening\b`), fixedOffset(0)},
	{regexp.MustCompile(`\btonight\b`), fixedOffset(0)},

	// Week references
	{regexp.MustCompile(`\bthis\s+week\b`), func(anchor time.Time, _ []string) (string, bool) {
		// Upcoming Sunday of the current week
		return anchor.AddDate(0, 0, 6-weekdayIndex(anchor)).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bnext\s+week\b`), func(anchor time.Time, _ []string) (string, bool) {
		// Monday of the following week
		return anchor.AddDate(0, 0, 7-weekdayIndex(anchor)).Format(isoDate), true
	}},
	{regexp.MustCompile(`\blast\s+week\b`), func(anchor time.Time, _ []string) (string, bool) {
		// Monday of the previous week
		return anchor.AddDate(0, 0, -(weekdayIndex(anchor) + 7)).Format(isoDate), true
	}},

	// Month references
	{regexp.MustCompile(`\bthis\s+month\b`), func(anchor time.Time, _ []string) (string, bool) {
		return lastDayOfMonth(anchor).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bnext\s+month\b`), func(anchor time.Time, _ []string) (string, bool) {
		return firstOfMonth(anchor).AddDate(0, 1, 0).Format(isoDate), true
	}},
	{regexp.MustCompile(`\blast\s+month\b`), func(anchor time.Time, _ []string) (string, bool) {
		return firstOfMonth(anchor).AddDate(0, -1, 0).Format(isoDate), true
	}},

	// End-of-period references
	{regexp.MustCompile(`\bend\s+of\s+month\b`), func(anchor time.Time, _ []string) (string, bool) {
		return lastDayOfMonth(anchor).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bend\s+of\s+week\b`), func(anchor time.Time, _ []string) (string, bool) {
		return anchor.AddDate(0, 0, 6-weekdayIndex(anchor)).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bend\s+of\s+year\b`), func(anchor time.Time, _ []string) (string, bool) {
		return time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, anchor.Location()).Format(isoDate), true
	}},

	// Specific weekdays
	{regexp.MustCompile(`\bnext\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		func(anchor time.Time, m []string) (string, bool) {
			target := weekdayNames[m[1]]
			ahead := target - weekdayIndex(anchor)
			if ahead <= 0 {
				// Never returns today: same weekday rolls a full week forward.
				ahead += 7
			}
			return anchor.AddDate(0, 0, ahead).Format(isoDate), true
		}},
	{regexp.MustCompile(`\bthis\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		func(anchor time.Time, m []string) (string, bool) {
			target := weekdayNames[m[1]]
			ahead := target - weekdayIndex(anchor)
			if ahead < 0 {
				// This week's occurrence has already passed: no date.
				return "", false
			}
			return anchor.AddDate(0, 0, ahead).Format(isoDate), true
		}},

	// Relative offsets
	{regexp.MustCompile(`\bin\s+(\d+)\s+days?\b`), func(anchor time.Time, m []string) (string, bool) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		return anchor.AddDate(0, 0, n).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bin\s+(\d+)\s+weeks?\b`), func(anchor time.Time, m []string) (string, bool) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		return anchor.AddDate(0, 0, n*7).Format(isoDate), true
	}},
	{regexp.MustCompile(`\bin\s+(\d+)\s+months?\b`), func(anchor time.Time, m []string) (string, bool) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		// Calendar-month arithmetic with year rollover, not 30-day blocks.
		return anchor.AddDate(0, n, 0).Format(isoDate), true
	}},

	// Numeric dates: MM/DD/YYYY or MM-DD-YY (2-digit years are 20xx)
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`),
		func(anchor time.Time, m []string) (string, bool) {
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if len(m[3]) == 2 {
				year += 2000
			}
			return calendarDate(year, month, day, anchor.Location())
		}},

	// Month name + day: current year, rolling to next year if already passed
	{regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})\b`),
		func(anchor time.Time, m []string) (string, bool) {
			month := monthNames[m[1]]
			day, _ := strconv.Atoi(m[2])
			year := anchor.Year()
			if month < anchor.Month() || (month == anchor.Month() && day < anchor.Day()) {
				year++
			}
			return calendarDate(year, int(month), day, anchor.Location())
		}},
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}

// calendarDate formats year/month/day as ISO only when the components form a
// real calendar date; "13/45/2024" must never produce a due date.
func calendarDate(year, month, day int, loc *time.Location) (string, bool) {
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return "", false
	}
	return d.Format(isoDate), true
}

// parseDueDate resolves the first matching due-date rule against the anchor.
// The returned matched flag distinguishes "a phrase matched but resolved to
// no date" from "no date phrase present at all".
func parseDueDate(lowerInput string, anchor time.Time) (date string, matched bool) {
	for _, r := range dueDateRules {
		m := r.pattern.FindStringSubmatch(lowerInput)
		if m == nil {
			continue
		}
		d, ok := r.resolve(anchor, m)
		if !ok {
			return "", true
		}
		return d, true
	}
	return "", false
}
