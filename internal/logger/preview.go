package logger

import "strings"

// Preview flattens s onto one line and cuts it to limit runes, so response
// bodies and prompts fit in a single log field. A non-positive limit hides s.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
