package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-slug"
)

// keyCounter issues deterministic keys per category: the first occurrence
// is the bare category, later ones are suffixed "_2", "_3" in document
// order. A counter lives for exactly one page extraction.
type keyCounter map[string]int

func (c keyCounter) next(category string) string {
	c[category]++
	n := c[category]
	if n == 1 {
		return category
	}
	return fmt.Sprintf("%s_%d", category, n)
}

// keyName derives a stable key fragment from display text.
func keyName(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = sanitizeKey(value)
	}
	return strings.ReplaceAll(normalized, "-", "_")
}

func sanitizeKey(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "text"
	}
	return out
}

// snakeCase turns a camelCase or kebab-case name into snake_case.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '@':
			if b.Len() > 0 {
				b.WriteByte('_')
			}
		case unicode.IsUpper(r):
			if i > 0 && !unicode.IsUpper(runes[i-1]) && runes[i-1] != '-' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
