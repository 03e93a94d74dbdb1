// Package render resolves page templates into per-locale HTML and writes the
// rendered tree together with its sitemap, robots file and build manifest.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
	"github.com/goliatone/go-localize/internal/site"
)

// Reason explains why a placeholder was left in the output.
type Reason string

const (
	ReasonMissingTranslation Reason = "missing_translation"
	ReasonMissingSourceKey   Reason = "missing_source_key"
	ReasonMalformed          Reason = "malformed"
	ReasonUnknownName        Reason = "unknown_name"
)

// Unresolved records one placeholder the engine could not resolve. The
// literal placeholder text stays in the rendered output.
type Unresolved struct {
	Page   string
	Locale string
	Scope  string
	Key    string
	Raw    string
	Reason Reason
	Line   int
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s/%s:%d %s (%s)", u.Locale, u.Page, u.Line, u.Raw, u.Reason)
}

// Fatal reports whether the miss means templates and the source dictionary
// drifted apart, as opposed to a translation that is simply not done yet.
func (u Unresolved) Fatal() bool {
	return u.Reason != ReasonMissingTranslation
}

// Engine renders templates against a fixed registry. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	registry site.Registry
}

// NewEngine returns an engine for registry.
func NewEngine(registry site.Registry) *Engine {
	return &Engine{registry: registry}
}

// Render resolves structural placeholders first, then translation
// placeholders from store. Placeholders inside scripts, styles and comments
// are left alone. A miss keeps the literal placeholder and is reported.
func (e *Engine) Render(template string, page site.Page, locale site.Locale, store *dictionary.Store) (string, []Unresolved) {
	r := &renderer{registry: e.registry, page: page, locale: locale, store: store}
	text := r.resolveStructural(template)
	text = r.resolveTranslations(text)
	return text, r.unresolved
}

type renderer struct {
	registry   site.Registry
	page       site.Page
	locale     site.Locale
	store      *dictionary.Store
	unresolved []Unresolved
}

func opaqueSkip(doc *htmlscan.Document) func(int) bool {
	return func(offset int) bool {
		return doc.Within(offset, htmlscan.Opaque)
	}
}

func (r *renderer) resolveStructural(text string) string {
	doc := htmlscan.Scan(text, htmlscan.Options{})
	return placeholder.Replace(text, opaqueSkip(doc), func(ref placeholder.Ref) (string, bool) {
		switch ref.Kind {
		case placeholder.KindStructural:
			return r.structural(ref.Name, indentAt(text, ref.Start)), true
		case placeholder.KindUnknown:
			r.miss(text, ref, ReasonUnknownName)
		case placeholder.KindMalformed:
			r.miss(text, ref, ReasonMalformed)
		}
		return "", false
	})
}

func (r *renderer) resolveTranslations(text string) string {
	doc := htmlscan.Scan(text, htmlscan.Options{})
	return placeholder.Replace(text, opaqueSkip(doc), func(ref placeholder.Ref) (string, bool) {
		if ref.Kind != placeholder.KindTranslation {
			return "", false
		}
		if r.store == nil {
			r.miss(text, ref, ReasonMissingSourceKey)
			return "", false
		}
		value, status := r.store.Lookup(r.locale.Code, ref.Scope, ref.Key)
		switch status {
		case dictionary.MissingTranslation:
			r.miss(text, ref, ReasonMissingTranslation)
			return "", false
		case dictionary.MissingSource:
			r.miss(text, ref, ReasonMissingSourceKey)
			return "", false
		}
		value = r.resolveEmbedded(value)
		if doc.Within(ref.Start, htmlscan.JSONLD) {
			value = escapeJSON(value)
		}
		return value, true
	})
}

// resolveEmbedded resolves structural placeholders carried inside a
// dictionary value, such as a localized link in a paragraph.
func (r *renderer) resolveEmbedded(value string) string {
	if !placeholder.Contains(value) {
		return value
	}
	return placeholder.Replace(value, nil, func(ref placeholder.Ref) (string, bool) {
		if ref.Kind != placeholder.KindStructural {
			return "", false
		}
		return r.structural(ref.Name, ""), true
	})
}

func (r *renderer) miss(text string, ref placeholder.Ref, reason Reason) {
	r.unresolved = append(r.unresolved, Unresolved{
		Page:   r.page.Key,
		Locale: r.locale.Code,
		Scope:  ref.Scope,
		Key:    ref.Key,
		Raw:    ref.Raw,
		Reason: reason,
		Line:   strings.Count(text[:ref.Start], "\n") + 1,
	})
}

func (r *renderer) structural(name placeholder.Name, indent string) string {
	switch name {
	case placeholder.HTMLLang:
		return r.locale.HTMLLang
	case placeholder.CanonicalURL:
		return r.locale.URL(r.registry.BaseURL, r.page.URLPath())
	case placeholder.OGLocale:
		return r.locale.OGLocale
	case placeholder.LocalePath:
		return r.locale.PathPrefix
	case placeholder.HreflangTags:
		return joinLines(HreflangLinks(r.registry, r.page), indent)
	case placeholder.OGLocaleAlternates:
		return joinLines(ogAlternates(r.registry, r.locale), indent)
	case placeholder.LangSwitcher:
		return joinLines(langSwitcher(r.registry, r.page, r.locale), indent)
	}
	return ""
}

// indentAt returns the leading whitespace of the line holding offset.
func indentAt(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := start
	for end < offset && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

func joinLines(lines []string, indent string) string {
	return strings.Join(lines, "\n"+indent)
}

// escapeJSON returns value encoded for use between the quotes of a JSON
// string inside a script element. "</" is written as "<\/" so the value
// cannot close the element.
func escapeJSON(value string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return value
	}
	encoded := strings.TrimSuffix(b.String(), "\n")
	return strings.ReplaceAll(encoded[1:len(encoded)-1], "</", `<\/`)
}
