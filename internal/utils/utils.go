package utils

import "strings"

// TruncateForLog folds s onto one line and shortens it to limit runes,
// appending an ellipsis when truncated. Model replies are multi-line
// markdown and would otherwise break console log output.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = OneLine(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// OneLine collapses every run of whitespace, newlines included, to a single space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
