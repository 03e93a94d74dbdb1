package extract

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-localize/internal/placeholder"
)

// structural replaces locale-dependent attributes with structural
// placeholders. The full variant also swaps the alternate hreflang links and
// og:locale:alternate tags for their generated blocks; redirect pages only
// get the document language and canonical URL.
func (s *pageState) structural(full bool) {
	var edits []edit
	removedAlternates := 0

	for _, m := range htmlTagPattern.FindAllStringIndex(s.text, -1) {
		if s.opaque(m[0]) {
			continue
		}
		if lang, ok := findAttribute(parseAttributes(s.text[m[0]:m[1]]), "lang"); ok && !placeholder.StartsWith(lang.Value) {
			edits = append(edits, edit{Start: m[0] + lang.ValueStart, End: m[0] + lang.ValueEnd, Text: placeholder.Structural(placeholder.HTMLLang)})
		}
	}

	for _, m := range linkPattern.FindAllStringIndex(s.text, -1) {
		if s.opaque(m[0]) {
			continue
		}
		attrs := parseAttributes(s.text[m[0]:m[1]])
		rel, _ := findAttribute(attrs, "rel")
		rels := strings.Fields(strings.ToLower(rel.Value))
		switch {
		case contains(rels, "canonical"):
			if href, ok := findAttribute(attrs, "href"); ok && !placeholder.StartsWith(href.Value) {
				edits = append(edits, edit{Start: m[0] + href.ValueStart, End: m[0] + href.ValueEnd, Text: placeholder.Structural(placeholder.CanonicalURL)})
			}
		case full && contains(rels, "alternate"):
			if _, ok := findAttribute(attrs, "hreflang"); ok {
				edits = append(edits, removal(s.text, m[0], m[1]))
			}
		}
	}

	for _, m := range metaPattern.FindAllStringIndex(s.text, -1) {
		if s.opaque(m[0]) {
			continue
		}
		attrs := parseAttributes(s.text[m[0]:m[1]])
		content, hasContent := findAttribute(attrs, "content")
		switch metaName(attrs) {
		case "og:url":
			if hasContent && !placeholder.StartsWith(content.Value) {
				edits = append(edits, edit{Start: m[0] + content.ValueStart, End: m[0] + content.ValueEnd, Text: placeholder.Structural(placeholder.CanonicalURL)})
			}
		case "og:locale":
			if full && hasContent && !placeholder.StartsWith(content.Value) {
				edits = append(edits, edit{Start: m[0] + content.ValueStart, End: m[0] + content.ValueEnd, Text: placeholder.Structural(placeholder.OGLocale)})
			}
		case "og:locale:alternate":
			if full {
				edits = append(edits, removal(s.text, m[0], m[1]))
				removedAlternates++
			}
		}
	}
	s.setText(applyEdits(s.text, edits))

	if !full {
		return
	}
	s.insertHreflang()
	s.insertOGAlternates(removedAlternates > 0)
}

func (s *pageState) insertHreflang() {
	block := placeholder.Structural(placeholder.HreflangTags)
	if strings.Contains(s.text, block) {
		return
	}
	for _, m := range linkPattern.FindAllStringIndex(s.text, -1) {
		rel, _ := findAttribute(parseAttributes(s.text[m[0]:m[1]]), "rel")
		if !s.opaque(m[0]) && contains(strings.Fields(strings.ToLower(rel.Value)), "canonical") {
			s.setText(insertAfterLine(s.text, m[0], block))
			return
		}
	}
	if loc := headClose.FindStringIndex(s.text); loc != nil {
		s.setText(insertBeforeLine(s.text, loc[0], block))
	}
}

func (s *pageState) insertOGAlternates(hadAlternates bool) {
	block := placeholder.Structural(placeholder.OGLocaleAlternates)
	if strings.Contains(s.text, block) {
		return
	}
	for _, m := range metaPattern.FindAllStringIndex(s.text, -1) {
		if !s.opaque(m[0]) && metaName(parseAttributes(s.text[m[0]:m[1]])) == "og:locale" {
			s.setText(insertAfterLine(s.text, m[0], block))
			return
		}
	}
	if !hadAlternates {
		return
	}
	if loc := headClose.FindStringIndex(s.text); loc != nil {
		s.setText(insertBeforeLine(s.text, loc[0], block))
	}
}

// insertAfterLine adds content on a new line after the line holding offset,
// with the same indentation.
func insertAfterLine(text string, offset int, content string) string {
	start, end := lineBounds(text, offset)
	indent := indentation(text[start:end])
	return text[:end] + "\n" + indent + content + text[end:]
}

// insertBeforeLine adds content before offset. When offset starts its line
// the content gets a line of its own, indented one level deeper.
func insertBeforeLine(text string, offset int, content string) string {
	start, _ := lineBounds(text, offset)
	prefix := text[start:offset]
	if strings.TrimSpace(prefix) != "" {
		return text[:offset] + content + text[offset:]
	}
	return text[:start] + prefix + "  " + content + "\n" + text[start:]
}

// redirect prefixes the configured redirect target with the locale path in
// meta refresh URLs and href attributes.
func (s *pageState) redirect() {
	target := strings.TrimSpace(s.page.RedirectTo)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		s.diag(PassRedirect, "redirect target %q is not root-relative; left unchanged", target)
		return
	}
	pattern := regexp.MustCompile(`(?i)(url=\s*|href=")` + regexp.QuoteMeta(target) + `(["'\s;>]|$)`)
	var edits []edit
	for _, m := range pattern.FindAllStringSubmatchIndex(s.text, -1) {
		if s.opaque(m[0]) {
			continue
		}
		edits = append(edits, edit{Start: m[3], End: m[3], Text: placeholder.Structural(placeholder.LocalePath)})
	}
	if len(edits) == 0 && !strings.Contains(s.text, placeholder.Structural(placeholder.LocalePath)+target) {
		s.diag(PassRedirect, "redirect target %q not found in page", target)
	}
	s.setText(applyEdits(s.text, edits))
}
