package extract

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
)

var (
	titlePattern   = regexp.MustCompile(`(?is)<title\b[^>]*>(.*?)</title>`)
	metaPattern    = regexp.MustCompile(`(?i)<meta\b[^>]*>`)
	linkPattern    = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	htmlTagPattern = regexp.MustCompile(`(?i)<html\b[^>]*>`)
	headClose      = regexp.MustCompile(`(?i)</head\s*>`)
)

// metadataKeys maps a meta name or property to its fixed key.
var metadataKeys = map[string]string{
	"description":         "meta_description",
	"keywords":            "meta_keywords",
	"og:title":            "og_title",
	"og:description":      "og_description",
	"og:image:alt":        "og_image_alt",
	"twitter:title":       "twitter_title",
	"twitter:description": "twitter_description",
	"twitter:image:alt":   "twitter_image_alt",
}

// metadata captures page identity text: the document title and the meta
// description, keywords and social preview fields.
func (s *pageState) metadata() {
	var edits []edit
	for _, m := range titlePattern.FindAllStringSubmatchIndex(s.text, -1) {
		if s.opaque(m[0]) || !s.inHead(m[0]) {
			continue
		}
		inner := s.text[m[2]:m[3]]
		if skipMetadataValue(inner) {
			continue
		}
		_, core, _ := splitSpace(inner)
		edits = append(edits, edit{Start: m[2], End: m[3], Text: replaceInner(inner, s.pageKey("meta_title", core))})
	}

	for _, m := range metaPattern.FindAllStringIndex(s.text, -1) {
		if s.opaque(m[0]) {
			continue
		}
		attrs := parseAttributes(s.text[m[0]:m[1]])
		category, ok := metadataKeys[metaName(attrs)]
		if !ok {
			continue
		}
		content, ok := findAttribute(attrs, "content")
		if !ok || skipMetadataValue(content.Value) {
			continue
		}
		_, core, _ := splitSpace(content.Value)
		edits = append(edits, edit{
			Start: m[0] + content.ValueStart,
			End:   m[0] + content.ValueEnd,
			Text:  replaceInner(content.Value, s.pageKey(category, core)),
		})
	}
	s.setText(applyEdits(s.text, edits))
}

func skipMetadataValue(value string) bool {
	return strings.TrimSpace(value) == "" || placeholder.StartsWith(value)
}

// metaName returns the lowercased property or name of a meta tag.
func metaName(attrs []attribute) string {
	if attr, ok := findAttribute(attrs, "property"); ok {
		return strings.ToLower(strings.TrimSpace(attr.Value))
	}
	if attr, ok := findAttribute(attrs, "name"); ok {
		return strings.ToLower(strings.TrimSpace(attr.Value))
	}
	return ""
}

// inHead reports whether offset lies in the document head. Fragments
// without a head element are treated as all head.
func (s *pageState) inHead(offset int) bool {
	heads := s.doc.Find(htmlscan.Head)
	if len(heads) == 0 {
		return true
	}
	for _, head := range heads {
		if head.Contains(offset) {
			return true
		}
	}
	return false
}
