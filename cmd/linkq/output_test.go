package main

import (
	"strings"
	"testing"
)

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"queued":  "Queued",
		"SENDING": "Sending",
		"  done ": "Done",
		"":        "",
	}
	for input, want := range cases {
		if got := formatStatusLabel(input); got != want {
			t.Errorf("formatStatusLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatDisplayTime(t *testing.T) {
	if got := formatDisplayTime("2026-08-24T10:30:00Z"); got != "2026-08-24 10:30" {
		t.Errorf("formatDisplayTime = %q", got)
	}
	if got := formatDisplayTime("not a time"); got != "not a time" {
		t.Errorf("unparseable value should pass through, got %q", got)
	}
	if got := formatDisplayTime(""); got != "" {
		t.Errorf("empty value should stay empty, got %q", got)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Errorf("truncateText = %q", got)
	}
	got := truncateText("a very long string that should be cut", 12)
	if len(got) != 12 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateText = %q", got)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Name"},
		[][]string{{"1", "first"}, {"2", "second"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("table output = %q", out)
	}
}

func TestBuildQueueStatusRowsSorted(t *testing.T) {
	rows := buildQueueStatusRows(map[string]int{"queued": 2, "done": 1})
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Done" || rows[1][0] != "Queued" {
		t.Errorf("rows not sorted: %v", rows)
	}
}
