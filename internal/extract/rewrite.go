package extract

import (
	"regexp"
	"strings"
)

// rewriteGroup replaces submatch group of every match of re. fn receives
// all submatches and returns the replacement for group. skip, when set, is
// asked about each match start offset.
func rewriteGroup(text string, re *regexp.Regexp, group int, skip func(offset int) bool, fn func(groups []string) (string, bool)) string {
	var edits []edit
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if m[2*group] < 0 || (skip != nil && skip(m[0])) {
			continue
		}
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = text[m[2*i]:m[2*i+1]]
			}
		}
		replacement, ok := fn(groups)
		if !ok {
			continue
		}
		edits = append(edits, edit{Start: m[2*group], End: m[2*group+1], Text: replacement})
	}
	return applyEdits(text, edits)
}

var classTagPattern = regexp.MustCompile(`(?i)<([a-z][a-z0-9]*)\b([^>]*?\bclass\s*=\s*"([^"]*)"[^>]*)>`)

// rewriteClassed visits every element carrying a class attribute whose
// closing tag is on the same text and replaces its inner content with what fn
// returns. Elements nested inside a rewritten element are not visited.
func rewriteClassed(text string, skip func(offset int) bool, fn func(tag string, classes []string, inner string) (string, bool)) string {
	var edits []edit
	last := 0
	for _, m := range classTagPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < last || (skip != nil && skip(m[0])) {
			continue
		}
		tag := strings.ToLower(text[m[2]:m[3]])
		if _, void := voidTags[tag]; void || strings.HasSuffix(text[m[0]:m[1]], "/>") {
			continue
		}
		closing := strings.Index(strings.ToLower(text[m[1]:]), "</"+tag)
		if closing < 0 {
			continue
		}
		inner := text[m[1] : m[1]+closing]
		if strings.Contains(strings.ToLower(inner), "<"+tag) {
			continue
		}
		replacement, ok := fn(tag, strings.Fields(text[m[6]:m[7]]), inner)
		if !ok {
			continue
		}
		edits = append(edits, edit{Start: m[1], End: m[1] + closing, Text: replacement})
		last = m[1] + closing
	}
	return applyEdits(text, edits)
}

var voidTags = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

// firstMapped returns the key of the first class present in mapping.
func firstMapped(classes []string, mapping map[string]string) (string, bool) {
	for _, class := range classes {
		if key, ok := mapping[class]; ok {
			return key, true
		}
	}
	return "", false
}
