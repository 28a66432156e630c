package validators

import "strings"

// SanitizeString trims input and caps it at maxLen bytes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// NormalizeLabel is the case-insensitive lookup key for item labels.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
