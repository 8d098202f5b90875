package nlp

import "testing"

func TestExtractPriority(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"this is urgent", PriorityHigh},
		{"CRITICAL fix needed", PriorityHigh},
		{"do it asap", PriorityHigh},
		{"medium priority cleanup", PriorityHigh}, // "priority" itself implies high
		{"normal chores", PriorityMedium},
		{"moderate effort refactor", PriorityMedium},
		{"low stakes, whenever", PriorityLow},
		{"minor tweak someday", PriorityLow},
		{"buy milk", ""},
	}
	for _, tc := range cases {
		if got := extractPriority(tc.input); got != tc.want {
			t.Errorf("extractPriority(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestExtractStatus(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"it is done", StatusCompleted},
		{"finally finished it", StatusCompleted},
		{"still working on it", StatusInProgress},
		{"ongoing migration", StatusInProgress},
		{"currently pending review", StatusPending},
		{"waiting on approval", StatusPending},
		{"buy milk", ""},
	}
	for _, tc := range cases {
		if got := extractStatus(tc.input); got != tc.want {
			t.Errorf("extractStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
