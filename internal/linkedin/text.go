package linkedin

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ExcerptLength is the maximum excerpt length in characters.
	ExcerptLength  = 260
	maxTitleLength = 80
	ellipsis       = "…"
	punctuation    = ",.;:!? "
)

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// CollapseSpaces replaces whitespace runs with a single space and trims.
func CollapseSpaces(text string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(text, " "))
}

// Excerpt collapses whitespace and truncates the text to ExcerptLength
// characters, ellipsis included.
func Excerpt(text string) string {
	return truncateAtWordBoundary(CollapseSpaces(text), ExcerptLength)
}

// FirstLine returns the first non-blank line of text, whitespace-collapsed
// and shortened to a title-friendly length.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = CollapseSpaces(line); line != "" {
			return truncateAtWordBoundary(line, maxTitleLength)
		}
	}

	return ""
}

// truncateAtWordBoundary cuts text to at most limit characters including the
// trailing ellipsis, preferring the last word boundary.
func truncateAtWordBoundary(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	lastWordEnd := 0
	currentCount := 0

	for i, r := range text {
		currentCount++

		if unicode.IsSpace(r) {
			lastWordEnd = i
		}

		if currentCount >= limit {
			var truncated string

			if lastWordEnd > 0 {
				truncated = text[:lastWordEnd]
			} else {
				// No word boundary, cut mid-word
				truncated = text[:i]
			}

			truncated = strings.TrimRight(truncated, punctuation)

			return truncated + ellipsis
		}
	}

	return text
}
