package main

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateText(t *testing.T) {
	cases := []struct {
		name  string
		value string
		max   int
		want  string
	}{
		{"short value untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long value truncated", "hello world", 8, "hello..."},
		{"whitespace trimmed", "  hello  ", 10, "hello"},
		{"tiny max untouched", "hello", 3, "hello"},
		{"multibyte kept whole", "Boulangerie Chérie et Compagnie", 12, "Boulanger..."},
	}
	for _, tc := range cases {
		got := truncateText(tc.value, tc.max)
		if got != tc.want {
			t.Errorf("%s: truncateText(%q, %d) = %q, want %q", tc.name, tc.value, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: truncated text is not valid UTF-8: %q", tc.name, got)
		}
	}

	accented := truncateText("Pâtisserie du Marché aux Fleurs et Épices", 10)
	if !utf8.ValidString(accented) {
		t.Fatalf("truncation split a multibyte rune: %q", accented)
	}
}
