package extract

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/goliatone/go-localize/internal/placeholder"
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	spacePattern     = regexp.MustCompile(`\s+`)
	numericIDPattern = regexp.MustCompile(`^[A-Za-z]{0,3}[-_#]?\d+$`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2})?([T ][0-9:.+\-Z]*)?$`)
	attrPattern      = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)\s*=\s*"([^"]*)"`)
)

// visibleText strips inline markup and entities and collapses whitespace.
func visibleText(inner string) string {
	text := tagPattern.ReplaceAllString(inner, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// skipCandidate applies the body-text skip rules.
func skipCandidate(inner string) bool {
	if strings.TrimSpace(inner) == "" || placeholder.StartsWith(inner) {
		return true
	}
	text := visibleText(inner)
	if utf8.RuneCountInString(text) < 2 {
		return true
	}
	if !hasLetter(text) {
		return true
	}
	return numericIDPattern.MatchString(text)
}

// skipStructuredValue applies the structured-data skip rules.
func skipStructuredValue(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || placeholder.StartsWith(trimmed) {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"http://", "https://", "//", "/", "mailto:", "tel:", "www."} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	if isoDatePattern.MatchString(trimmed) {
		return true
	}
	if !hasLetter(trimmed) {
		return true
	}
	return isIdentifier(trimmed)
}

// isIdentifier matches machine-readable tokens such as SKUs, GTINs and
// currency codes: a single word carrying a digit or written in capitals.
func isIdentifier(value string) bool {
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return false
	}
	hasDigit := strings.IndexFunc(value, unicode.IsDigit) >= 0
	if hasDigit {
		return true
	}
	letters := 0
	for _, r := range value {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 2
}

func hasLetter(value string) bool {
	return strings.IndexFunc(value, unicode.IsLetter) >= 0
}

// splitSpace separates leading and trailing whitespace from the core text.
func splitSpace(value string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(value, unicode.IsSpace)
	lead = value[:len(value)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// attribute locates a double-quoted attribute inside one tag and returns the
// value bounds relative to the tag.
type attribute struct {
	Name       string
	Value      string
	ValueStart int
	ValueEnd   int
}

func parseAttributes(tag string) []attribute {
	matches := attrPattern.FindAllStringSubmatchIndex(tag, -1)
	attrs := make([]attribute, 0, len(matches))
	for _, m := range matches {
		attrs = append(attrs, attribute{
			Name:       strings.ToLower(tag[m[2]:m[3]]),
			Value:      tag[m[4]:m[5]],
			ValueStart: m[4],
			ValueEnd:   m[5],
		})
	}
	return attrs
}

func findAttribute(attrs []attribute, name string) (attribute, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return attribute{}, false
}

// lineBounds returns the start and end (exclusive of the newline) of the
// line holding offset.
func lineBounds(text string, offset int) (int, int) {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return start, len(text)
	}
	return start, offset + end
}

func indentation(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// isLocalLink reports whether a root-relative target should carry the locale
// path prefix.
func (v Vocabulary) isLocalLink(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	clean := target
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	for _, dir := range v.ReservedDirs {
		if strings.HasPrefix(clean, dir) || clean == strings.TrimSuffix(dir, "/") {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(clean))
	return ext == "" || !contains(v.AssetExtensions, ext)
}
