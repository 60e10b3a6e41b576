package circulation

import "strings"

// NormalizeTitle builds the duplicate-detection key of a title:
// leading and trailing whitespace removed, inner whitespace runs collapsed to one space, lowercased.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// trimmedOrNil returns nil for nil or blank input, otherwise a pointer to the trimmed text.
func trimmedOrNil(text *string) *string {
	if text == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*text)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
