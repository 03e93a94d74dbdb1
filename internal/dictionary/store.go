package dictionary

import (
	"slices"
	"strings"
)

// Status reports the outcome of a store lookup.
type Status int

const (
	// Found means the locale holds the key.
	Found Status = iota
	// MissingTranslation means only the source locale holds the key.
	MissingTranslation
	// MissingSource means the key is absent from the source locale as well.
	MissingSource
)

// Store is an immutable snapshot of every locale dictionary used by one
// build. Lookups never fall back to the source text: a missing translation
// is reported so the caller can keep the placeholder visible.
type Store struct {
	source   string
	locales  map[string]Dictionary
	failures []*LocaleError
}

// NewStore snapshots the given dictionaries. Inputs are cloned so later
// mutation by the caller does not leak into a running build.
func NewStore(source string, locales map[string]Dictionary) *Store {
	snapshot := make(map[string]Dictionary, len(locales))
	for code, dict := range locales {
		snapshot[normalizeCode(code)] = dict.Clone()
	}
	if _, ok := snapshot[normalizeCode(source)]; !ok {
		snapshot[normalizeCode(source)] = New()
	}
	return &Store{source: normalizeCode(source), locales: snapshot}
}

// SourceLocale returns the authoritative locale code.
func (s *Store) SourceLocale() string {
	return s.source
}

// Failures lists the locales that were replaced by an empty dictionary
// because their document could not be loaded.
func (s *Store) Failures() []*LocaleError {
	return slices.Clone(s.failures)
}

// Source returns the source dictionary.
func (s *Store) Source() Dictionary {
	return s.locales[s.source]
}

// Locale returns the dictionary for code; an unknown locale yields an empty
// dictionary.
func (s *Store) Locale(code string) Dictionary {
	if dict, ok := s.locales[normalizeCode(code)]; ok {
		return dict
	}
	return New()
}

// Get returns the value for (locale, scope, key).
func (s *Store) Get(locale, scope, key string) (string, bool) {
	value, status := s.Lookup(locale, scope, key)
	return value, status == Found
}

// Lookup returns the value and explains a miss.
func (s *Store) Lookup(locale, scope, key string) (string, Status) {
	if value, ok := s.Locale(locale).Get(scope, key); ok {
		return value, Found
	}
	if _, ok := s.Source().Get(scope, key); ok {
		return "", MissingTranslation
	}
	return "", MissingSource
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
