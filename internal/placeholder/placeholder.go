// Package placeholder implements the single `{{...}}` grammar shared by
// extraction and rendering.
//
// Two families exist. Translation references `{{t.<scope>.<key>}}` are
// resolved through a locale dictionary. Structural references such as
// `{{canonicalUrl}}` are resolved from locale metadata and the page path.
// Parsing never fails: an unknown name or a malformed reference is reported
// as such and becomes a resolution error at render time.
package placeholder

import (
	"regexp"
	"strings"
)

const (
	Open  = "{{"
	Close = "}}"

	translationPrefix = "t."
)

// Name is a structural placeholder name.
type Name string

const (
	HTMLLang           Name = "htmlLang"
	CanonicalURL       Name = "canonicalUrl"
	OGLocale           Name = "ogLocale"
	HreflangTags       Name = "hreflangTags"
	OGLocaleAlternates Name = "ogLocaleAlternates"
	LangSwitcher       Name = "langSwitcher"
	LocalePath         Name = "localePath"
)

var structuralNames = map[Name]struct{}{
	HTMLLang:           {},
	CanonicalURL:       {},
	OGLocale:           {},
	HreflangTags:       {},
	OGLocaleAlternates: {},
	LangSwitcher:       {},
	LocalePath:         {},
}

// Names returns every structural name in a stable order.
func Names() []Name {
	return []Name{HTMLLang, CanonicalURL, OGLocale, HreflangTags, OGLocaleAlternates, LangSwitcher, LocalePath}
}

// Kind classifies a parsed reference.
type Kind int

const (
	KindUnknown Kind = iota
	KindTranslation
	KindStructural
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindStructural:
		return "structural"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var (
	// Any candidate between the delimiters. Classification happens in Parse.
	candidatePattern = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9_.\-]*)\}\}`)
	// Translation references only.
	translationPattern = regexp.MustCompile(`\{\{t\.([A-Za-z0-9_\-]+)\.([A-Za-z0-9_\-]+)\}\}`)
	identPattern       = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// Ref is one placeholder occurrence.
type Ref struct {
	Raw   string
	Kind  Kind
	Scope string
	Key   string
	Name  Name
	Start int
	End   int
}

// ScopeKey returns "scope.key" for translation references.
func (r Ref) ScopeKey() string {
	if r.Kind != KindTranslation {
		return ""
	}
	return r.Scope + "." + r.Key
}

// Parse classifies the body of a placeholder, i.e. the text between the
// delimiters.
func Parse(body string) Ref {
	ref := Ref{Raw: Open + body + Close}
	if strings.HasPrefix(body, translationPrefix) {
		parts := strings.Split(strings.TrimPrefix(body, translationPrefix), ".")
		if len(parts) != 2 || !identPattern.MatchString(parts[0]) || !identPattern.MatchString(parts[1]) {
			ref.Kind = KindMalformed
			return ref
		}
		ref.Kind = KindTranslation
		ref.Scope = parts[0]
		ref.Key = parts[1]
		return ref
	}
	if _, ok := structuralNames[Name(body)]; ok {
		ref.Kind = KindStructural
		ref.Name = Name(body)
		return ref
	}
	ref.Kind = KindUnknown
	ref.Name = Name(body)
	return ref
}

// Scan returns every placeholder occurrence in text, in order.
func Scan(text string) []Ref {
	matches := candidatePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		ref := Parse(text[m[2]:m[3]])
		ref.Start = m[0]
		ref.End = m[1]
		refs = append(refs, ref)
	}
	return refs
}

// ScanTranslations returns only well-formed translation references.
func ScanTranslations(text string) []Ref {
	matches := translationPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Ref{
			Raw:   text[m[0]:m[1]],
			Kind:  KindTranslation,
			Scope: text[m[2]:m[3]],
			Key:   text[m[4]:m[5]],
			Start: m[0],
			End:   m[1],
		})
	}
	return refs
}

// Translation formats a translation reference.
func Translation(scope, key string) string {
	return Open + translationPrefix + scope + "." + key + Close
}

// Structural formats a structural reference.
func Structural(name Name) string {
	return Open + string(name) + Close
}

// StartsWith reports whether s, ignoring leading whitespace, begins with the
// placeholder delimiter. Extraction never touches such values.
func StartsWith(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), Open)
}

// Contains reports whether s holds at least one placeholder candidate.
func Contains(s string) bool {
	return candidatePattern.MatchString(s)
}

// Set returns the multiset of placeholder texts in s, keyed by raw text.
func Set(s string) map[string]int {
	refs := Scan(s)
	if len(refs) == 0 {
		return nil
	}
	out := make(map[string]int, len(refs))
	for _, ref := range refs {
		out[ref.Raw]++
	}
	return out
}

// Resolver decides the replacement for one occurrence. Returning false keeps
// the literal placeholder text.
type Resolver func(ref Ref) (string, bool)

// Replace substitutes every occurrence for which skip returns false and
// resolve returns true. skip may be nil.
func Replace(text string, skip func(offset int) bool, resolve Resolver) string {
	refs := Scan(text)
	if len(refs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, ref := range refs {
		if skip != nil && skip(ref.Start) {
			continue
		}
		replacement, ok := resolve(ref)
		if !ok {
			continue
		}
		b.WriteString(text[last:ref.Start])
		b.WriteString(replacement)
		last = ref.End
	}
	b.WriteString(text[last:])
	return b.String()
}
