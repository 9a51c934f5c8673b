package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanTitle normalizes a bookmark title to NFC, strips control characters,
// and collapses interior whitespace runs to single spaces.
func CleanTitle(value string) string {
	return collapseWhitespace(normalize(value))
}

// CleanComment normalizes a comment to NFC and strips control characters but
// preserves interior newlines so multi-line comments survive round trips.
func CleanComment(value string) string {
	normalized := normalize(value)
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = collapseWhitespace(line)
	}
	out := strings.Join(lines, "\n")
	return strings.Trim(out, "\n")
}

func normalize(value string) string {
	composed := norm.NFC.String(value)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
