package nlp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractTagsExplicitList(t *testing.T) {
	// Whitespace around the comma-separated entries is irrelevant.
	a := extractTags("add task 'x' tags: errands,urgent-call,q3", "x")
	b := extractTags("add task 'x' tags:   errands ,  urgent-call ,q3", "x")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("whitespace changed the tag set (-a +b):\n%s", diff)
	}
	for _, want := range []string{"errands", "urgent-call", "q3"} {
		if !hasTag(a, want) {
			t.Errorf("tags = %v, want to include %q", a, want)
		}
	}
}

func TestExtractTagsImplicitCategories(t *testing.T) {
	tags := extractTags("schedule a doctor appointment and pay the bill", "")
	for _, want := range []string{"health", "finance", "doctor", "appointment", "bill"} {
		if !hasTag(tags, want) {
			t.Errorf("tags = %v, want to include %q", tags, want)
		}
	}
}

func TestExtractTagsTitleContributes(t *testing.T) {
	// Keywords in the title count even when absent from the raw input.
	tags := extractTags("add a new entry", "book flight to lisbon")
	if !hasTag(tags, "travel") {
		t.Errorf("tags = %v, want travel from the title keywords", tags)
	}
	if !hasTag(tags, "learning") {
		t.Errorf("tags = %v, want learning (title contains %q)", tags, "book")
	}
}

func TestExtractTagsTimeBased(t *testing.T) {
	tags := extractTags("gym tomorrow morning, review next week", "")
	for _, want := range []string{"tomorrow", "morning", "next_week"} {
		if !hasTag(tags, want) {
			t.Errorf("tags = %v, want to include %q", tags, want)
		}
	}
}

// De-duplication is case-sensitive: an explicit "Work" and the implicit
// "work" category are distinct tags.
func TestExtractTagsCaseSensitiveDedupe(t *testing.T) {
	tags := extractTags("add task 'office sync' tags: Work", "office sync")
	if !hasTag(tags, "Work") || !hasTag(tags, "work") {
		t.Errorf("tags = %v, want both Work and work", tags)
	}
}

func TestExtractTagsDeterministicOrder(t *testing.T) {
	input := "buy groceries tomorrow tags: errands"
	first := extractTags(input, "")
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, extractTags(input, "")); diff != "" {
			t.Fatalf("tag order unstable across runs:\n%s", diff)
		}
	}
	// Explicit tags always precede implicit and time tags.
	if len(first) == 0 || first[0] != "errands" {
		t.Errorf("tags = %v, want explicit tag first", first)
	}
}

func TestDedupeTags(t *testing.T) {
	got := dedupeTags([]string{" work ", "", "work", "home", "work", "  "})
	want := []string{"work", "home"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTagsNone(t *testing.T) {
	if tags := extractTags("zzz qqq", ""); len(tags) != 0 {
		t.Errorf("tags = %v, want none for text with no known keywords", tags)
	}
}
