package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	localstorage "github.com/goliatone/go-localize/internal/storage"
	"github.com/goliatone/go-localize/pkg/storage"
)

// FileStore persists one JSON document per locale under dir, named
// "<code>.json". Every save writes a complete document atomically so an
// interrupted run always leaves valid JSON behind.
type FileStore struct {
	provider storage.Provider
	dir      string
	source   string
}

// NewFileStore binds a store to a storage provider, a directory relative to
// the provider root and the source locale code.
func NewFileStore(provider storage.Provider, dir, source string) *FileStore {
	return &FileStore{provider: provider, dir: dir, source: normalizeCode(source)}
}

// Path returns the document path for a locale.
func (s *FileStore) Path(code string) string {
	return path.Join(s.dir, normalizeCode(code)+".json")
}

// Load reads a locale document. A missing document yields an empty dictionary.
func (s *FileStore) Load(ctx context.Context, code string) (Dictionary, error) {
	raw, ok, err := localstorage.ReadFile(ctx, s.provider, s.Path(code))
	if err != nil {
		return nil, fmt.Errorf("dictionary: read %s: %w", code, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return New(), nil
	}
	if err := Validate(raw, s.isSource(code)); err != nil {
		return nil, fmt.Errorf("dictionary: %s: %w", code, err)
	}
	dict := New()
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, fmt.Errorf("dictionary: decode %s: %w", code, err)
	}
	return dict, nil
}

// LocaleError records a non-source locale document that could not be
// loaded. The snapshot holds an empty dictionary for that locale instead.
type LocaleError struct {
	Locale string
	Err    error
}

func (e *LocaleError) Error() string {
	return e.Err.Error()
}

func (e *LocaleError) Unwrap() error {
	return e.Err
}

// LoadStore reads every listed locale into a snapshot store. A source
// locale that fails to load is an error; any other locale is replaced by an
// empty dictionary and reported through Store.Failures.
func (s *FileStore) LoadStore(ctx context.Context, codes []string) (*Store, error) {
	locales := make(map[string]Dictionary, len(codes))
	var failures []*LocaleError
	for _, code := range codes {
		dict, err := s.Load(ctx, code)
		if err != nil {
			if s.isSource(code) || ctx.Err() != nil {
				return nil, err
			}
			failures = append(failures, &LocaleError{Locale: normalizeCode(code), Err: err})
			dict = New()
		}
		locales[code] = dict
	}
	store := NewStore(s.source, locales)
	store.failures = failures
	return store, nil
}

// Save writes the full document for a locale.
func (s *FileStore) Save(ctx context.Context, code string, dict Dictionary) error {
	raw, err := Encode(dict)
	if err != nil {
		return fmt.Errorf("dictionary: encode %s: %w", code, err)
	}
	if err := Validate(raw, s.isSource(code)); err != nil {
		return fmt.Errorf("dictionary: %s: %w", code, err)
	}
	if err := localstorage.WriteFile(ctx, s.provider, s.Path(code), raw); err != nil {
		return fmt.Errorf("dictionary: write %s: %w", code, err)
	}
	return nil
}

func (s *FileStore) isSource(code string) bool {
	return normalizeCode(code) == s.source
}

// Encode renders a dictionary as indented JSON with sorted keys. Markup is
// not HTML-escaped so documents stay readable for translators.
func Encode(dict Dictionary) ([]byte, error) {
	if dict == nil {
		dict = New()
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dict); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Locales lists codes from file names of the form "<code>.json".
func Locales(names []string) []string {
	var out []string
	for _, name := range names {
		base := path.Base(name)
		if !strings.HasSuffix(base, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(base, ".json"))
	}
	return out
}
