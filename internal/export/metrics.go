package export

import "strings"

// WordCount counts words by splitting the content on single spaces. The
// simple split (rather than whitespace fields) matches what the rest of
// the product reports for the same article. Empty content counts as zero
// words; splitting would report one.
func WordCount(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Split(content, " "))
}

// Excerpt returns the first body line of the content, trimmed to at most
// 160 characters. Headings and blank lines are skipped.
func Excerpt(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		runes := []rune(line)
		if len(runes) > 160 {
			return strings.TrimSpace(string(runes[:157])) + "..."
		}
		return line
	}
	return ""
}

// ReadingTime estimates minutes to read: one minute per 1000 characters,
// rounded up, with a minimum of one minute for non-empty content.
func ReadingTime(content string) int {
	if len(content) == 0 {
		return 0
	}
	return (len(content) + 999) / 1000
}
