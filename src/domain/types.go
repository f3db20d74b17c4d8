package domain

import "strings"

var BuildInfo struct {
	Version string
	Commit  string
}

func splitTrim(value string) []string {
	parts := strings.Split(value, ",")
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return trimmed
}

// SplitList splits a comma-separated request value, dropping empty
// entries.
func SplitList(value string) []string {
	return splitTrim(value)
}
