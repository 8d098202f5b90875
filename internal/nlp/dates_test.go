package nlp

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// dateAnchor is Wednesday 2025-06-18 (weekdayIndex 2).
var dateAnchor = time.Date(2025, time.June, 18, 15, 0, 0, 0, time.UTC)

func TestParseDueDateRelativePhrases(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"finish today", "2025-06-18"},
		{"due tomorrow", "2025-06-19"},
		{"was due yesterday", "2025-06-17"},

		{"call mom this morning", "2025-06-18"},
		{"gym this afternoon", "2025-06-18"},
		{"dinner this evening", "2025-06-18"},
		{"laundry tonight", "2025-06-18"},

		{"report due this week", "2025-06-22"},
		{"plan for next week", "2025-06-23"},
		{"it slipped last week", "2025-06-09"},

		{"rent due this month", "2025-06-30"},
		{"trip next month", "2025-07-01"},
		{"bill from last month", "2025-05-01"},

		{"taxes by end of month", "2025-06-30"},
		{"review by end of week", "2025-06-22"},
		{"goals by end of year", "2025-12-31"},

		{"dentist next friday", "2025-06-20"},
		{"standup next monday", "2025-06-23"},
		{"sync this friday", "2025-06-20"},
		{"sync this wednesday", "2025-06-18"},

		{"ship in 3 days", "2025-06-21"},
		{"ship in 0 days", "2025-06-18"},
		{"review in 2 weeks", "2025-07-02"},
		{"renewal in 1 month", "2025-07-18"},

		{"party on 12/25/2025", "2025-12-25"},
		{"kickoff 3-1-26", "2026-03-01"},

		{"bbq on july 4", "2025-07-04"},
		{"resolution by january 15", "2026-01-15"},
		{"review on june 18", "2025-06-18"},
		{"anniversary june 17", "2026-06-17"},
	}

	for _, tc := range cases {
		got, matched := parseDueDate(tc.input, dateAnchor)
		if !matched {
			t.Errorf("parseDueDate(%q): no rule matched, want %s", tc.input, tc.want)
			continue
		}
		if got != tc.want {
			t.Errorf("parseDueDate(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// "next <weekday>" on that same weekday rolls a full week forward rather
// than resolving to the anchor itself.
func TestParseDueDateNextSameWeekdayRollsForward(t *testing.T) {
	got, matched := parseDueDate("sync next wednesday", dateAnchor)
	if !matched || got != "2025-06-25" {
		t.Errorf("got (%q, %v), want (2025-06-25, true)", got, matched)
	}
}

// "this <weekday>" for a weekday already behind the anchor matches but
// resolves to no date, and the chain stops there.
func TestParseDueDateThisPastWeekdayYieldsNoDate(t *testing.T) {
	got, matched := parseDueDate("sync this monday", dateAnchor)
	if !matched {
		t.Fatal("expected the this-weekday rule to match")
	}
	if got != "" {
		t.Errorf("got %q, want no date for a weekday earlier this week", got)
	}
}

func TestParseDueDateInvalidCalendarDates(t *testing.T) {
	for _, input := range []string{"due 13/45/2024", "due 2/30/2025", "due 0/10/2025"} {
		got, matched := parseDueDate(input, dateAnchor)
		if !matched {
			t.Errorf("parseDueDate(%q): numeric rule should still match", input)
			continue
		}
		if got != "" {
			t.Errorf("parseDueDate(%q) = %q, want no date for impossible components", input, got)
		}
	}
}

func TestParseDueDateFirstMatchWins(t *testing.T) {
	// "today" is declared before "tomorrow" and before the weekday rules.
	got, _ := parseDueDate("today or tomorrow", dateAnchor)
	if got != "2025-06-18" {
		t.Errorf("got %q, want the earliest rule (today) to win", got)
	}

	got, _ = parseDueDate("tomorrow, not next week", dateAnchor)
	if got != "2025-06-19" {
		t.Errorf("got %q, want tomorrow to win over next week", got)
	}
}

func TestParseDueDateNoPhrase(t *testing.T) {
	if got, matched := parseDueDate("water the plants", dateAnchor); matched {
		t.Errorf("got (%q, true), want no match at all", got)
	}
}

func TestParseDueDateYearRollover(t *testing.T) {
	newYearsEve := time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC)

	got, _ := parseDueDate("champagne tomorrow", newYearsEve)
	if got != "2025-01-01" {
		t.Errorf("tomorrow across the year boundary = %q, want 2025-01-01", got)
	}

	got, _ = parseDueDate("plan next month", newYearsEve)
	if got != "2025-01-01" {
		t.Errorf("next month across the year boundary = %q, want 2025-01-01", got)
	}

	// Calendar-month arithmetic, not 30-day blocks.
	endOfNovember := time.Date(2024, time.November, 30, 9, 0, 0, 0, time.UTC)
	got, _ = parseDueDate("renewal in 2 months", endOfNovember)
	if got != "2025-01-30" {
		t.Errorf("in 2 months from Nov 30 = %q, want 2025-01-30", got)
	}
}

func TestParseDueDateTomorrowProperty(t *testing.T) {
	base := time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)
	rapid.Check(t, func(t *rapid.T) {
		anchor := base.AddDate(0, 0, rapid.IntRange(0, 4000).Draw(t, "offset"))
		got, matched := parseDueDate("due tomorrow", anchor)
		want := anchor.AddDate(0, 0, 1).Format(isoDate)
		if !matched || got != want {
			t.Fatalf("anchor %s: got (%q, %v), want (%q, true)", anchor.Format(isoDate), got, matched, want)
		}
	})
}

func TestParseDueDateInNDaysProperty(t *testing.T) {
	base := time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)
	rapid.Check(t, func(t *rapid.T) {
		anchor := base.AddDate(0, 0, rapid.IntRange(0, 4000).Draw(t, "offset"))
		n := rapid.IntRange(0, 2000).Draw(t, "n")
		got, matched := parseDueDate(fmt.Sprintf("due in %d days", n), anchor)
		want := anchor.AddDate(0, 0, n).Format(isoDate)
		if !matched || got != want {
			t.Fatalf("anchor %s, n=%d: got (%q, %v), want (%q, true)", anchor.Format(isoDate), n, got, matched, want)
		}
	})
}

// next <weekday> always lands strictly after the anchor, within seven days,
// on the named weekday.
func TestParseDueDateNextWeekdayProperty(t *testing.T) {
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	base := time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)
	rapid.Check(t, func(t *rapid.T) {
		anchor := base.AddDate(0, 0, rapid.IntRange(0, 4000).Draw(t, "offset"))
		name := rapid.SampledFrom(names).Draw(t, "weekday")

		got, matched := parseDueDate("meet next "+name, anchor)
		if !matched || got == "" {
			t.Fatalf("anchor %s: next %s did not resolve", anchor.Format(isoDate), name)
		}
		resolved, err := time.ParseInLocation(isoDate, got, time.UTC)
		if err != nil {
			t.Fatalf("unparseable date %q: %v", got, err)
		}
		diff := int(resolved.Sub(time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)).Hours() / 24)
		if diff < 1 || diff > 7 {
			t.Fatalf("next %s from %s resolved %d days out, want 1..7", name, anchor.Format(isoDate), diff)
		}
		if weekdayIndex(resolved) != weekdayNames[name] {
			t.Fatalf("next %s from %s landed on %s", name, anchor.Format(isoDate), resolved.Weekday())
		}
	})
}

// Valid numeric dates round-trip exactly; the anchor never influences them.
func TestParseDueDateNumericProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(2024, 2099).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, 28).Draw(t, "day")

		input := fmt.Sprintf("due %d/%d/%d", month, day, year)
		got, matched := parseDueDate(input, dateAnchor)
		want := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		if !matched || got != want {
			t.Fatalf("parseDueDate(%q) = (%q, %v), want (%q, true)", input, got, matched, want)
		}
	})
}
