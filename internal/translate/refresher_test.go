package translate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"testing"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/site"
	"github.com/goliatone/go-localize/pkg/interfaces"
)

type memoryStore struct {
	docs   map[string]dictionary.Dictionary
	broken map[string]error
	saves  []string
}

func (m *memoryStore) Load(_ context.Context, code string) (dictionary.Dictionary, error) {
	if err := m.broken[code]; err != nil {
		return nil, err
	}
	if dict, ok := m.docs[code]; ok {
		return dict.Clone(), nil
	}
	return dictionary.New(), nil
}

func (m *memoryStore) Save(_ context.Context, code string, dict dictionary.Dictionary) error {
	m.docs[code] = dict.Clone()
	m.saves = append(m.saves, code)
	return nil
}

type recordingTranslator struct {
	calls []string
	fail  map[string]error
	edit  func(scope, key, value string) string
}

func (r *recordingTranslator) Translate(_ context.Context, scope string, source map[string]string, target interfaces.TranslationTarget) (map[string]string, error) {
	r.calls = append(r.calls, target.Code+"/"+scope)
	if err := r.fail[scope]; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(source))
	for key, value := range source {
		translated := "[" + target.Code + "] " + value
		if r.edit != nil {
			translated = r.edit(scope, key, translated)
		}
		out[key] = translated
	}
	return out, nil
}

func registry() site.Registry {
	return site.Registry{
		SourceLocale: "en",
		Locales: []site.Locale{
			{Code: "en", HTMLLang: "en", DisplayName: "English"},
			{Code: "de", HTMLLang: "de", DisplayName: "Deutsch"},
		},
	}
}

func twelveKeySource() dictionary.Dictionary {
	source := dictionary.New()
	for i := 1; i <= 12; i++ {
		source.Set("reviews", fmt.Sprintf("p_%d", i), fmt.Sprintf("Review line %d", i))
	}
	source.Set("home", "h1", "Welcome")
	return source
}

func TestRefreshRegeneratesStaleScopeInFull(t *testing.T) {
	source := twelveKeySource()
	de := dictionary.New()
	for i := 1; i <= 10; i++ {
		de.Set("reviews", fmt.Sprintf("p_%d", i), "alt")
	}
	de.Set("home", "h1", "Willkommen")

	store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": source, "de": de}}
	translator := &recordingTranslator{}
	report, err := NewRefresher(registry(), store, translator, nil, nil).Refresh(context.Background(), Options{})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(translator.calls) != 1 || translator.calls[0] != "de/reviews" {
		t.Fatalf("expected only the stale scope to be translated, got %v", translator.calls)
	}
	saved := store.docs["de"]
	if saved.KeyCount("reviews") != 12 {
		t.Fatalf("expected 12 keys after refresh, got %d", saved.KeyCount("reviews"))
	}
	for key, value := range saved.Scope("reviews") {
		if !strings.HasPrefix(value, "[de] ") {
			t.Fatalf("expected %s to be regenerated, got %q", key, value)
		}
	}
	if got, _ := saved.Get("home", "h1"); got != "Willkommen" {
		t.Fatalf("expected fresh scope untouched, got %q", got)
	}
	if report.Count(StatusTranslated) != 1 || report.Outcomes[0].Previous != 10 || report.Outcomes[0].Keys != 12 {
		t.Fatalf("unexpected report %+v", report.Outcomes)
	}
}

func TestRefreshFailurePreservesPriorStateAndContinues(t *testing.T) {
	source := dictionary.Dictionary{
		"guides": {"h1": "Guides", "p": "Read our guides"},
		"home":   {"h1": "Welcome"},
	}
	de := dictionary.Dictionary{"guides": {"h1": "Ratgeber"}}
	store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": source, "de": de}}
	translator := &recordingTranslator{fail: map[string]error{"guides": errors.New("upstream timeout")}}

	report, err := NewRefresher(registry(), store, translator, nil, nil).Refresh(context.Background(), Options{})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(translator.calls) != 2 {
		t.Fatalf("expected both scopes to be attempted, got %v", translator.calls)
	}
	saved := store.docs["de"]
	if diffCount := saved.KeyCount("guides"); diffCount != 1 {
		t.Fatalf("expected failed scope to keep its prior state, got %d keys", diffCount)
	}
	if got, _ := saved.Get("home", "h1"); got != "[de] Welcome" {
		t.Fatalf("expected home to be translated, got %q", got)
	}
	if len(store.saves) != 1 {
		t.Fatalf("expected one save after the successful scope, got %v", store.saves)
	}
	failed := report.Outcomes[0]
	if failed.Status != StatusFailed || !errors.Is(failed.Err, interfaces.ErrTranslationFailed) {
		t.Fatalf("expected failed outcome, got %+v", failed)
	}
}

func TestRefreshSkipsLocalesThatFailToLoad(t *testing.T) {
	reg := site.Registry{
		SourceLocale: "en",
		Locales: []site.Locale{
			{Code: "en", HTMLLang: "en"},
			{Code: "fr", HTMLLang: "fr"},
			{Code: "de", HTMLLang: "de"},
		},
	}
	loadErr := errors.New("dictionary: fr: expected string, but got number")
	store := &memoryStore{
		docs:   map[string]dictionary.Dictionary{"en": {"home": {"h1": "Welcome"}}},
		broken: map[string]error{"fr": loadErr},
	}
	translator := &recordingTranslator{}

	report, err := NewRefresher(reg, store, translator, nil, nil).Refresh(context.Background(), Options{})
	if err != nil {
		t.Fatalf("expected refresh to continue past fr, got %v", err)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected fr failure and de outcome, got %+v", report.Outcomes)
	}
	failed := report.Outcomes[0]
	if failed.Locale != "fr" || failed.Status != StatusFailed || !errors.Is(failed.Err, loadErr) {
		t.Fatalf("expected failed fr outcome, got %+v", failed)
	}
	if report.Outcomes[1].Locale != "de" || report.Outcomes[1].Status != StatusTranslated {
		t.Fatalf("expected de to be translated, got %+v", report.Outcomes[1])
	}
	if len(translator.calls) != 1 || translator.calls[0] != "de/home" {
		t.Fatalf("expected only de to reach the translator, got %v", translator.calls)
	}
	if _, ok := store.docs["fr"]; ok {
		t.Fatalf("expected broken fr document to stay untouched")
	}
}

func TestRefreshSavesAfterEveryScope(t *testing.T) {
	source := dictionary.Dictionary{
		"a": {"k": "One"},
		"b": {"k": "Two"},
		"c": {"k": "Three"},
	}
	store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": source}}
	if _, err := NewRefresher(registry(), store, &recordingTranslator{}, nil, nil).Refresh(context.Background(), Options{}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(store.saves) != 3 {
		t.Fatalf("expected a save per scope, got %v", store.saves)
	}
}

func TestRefreshRejectsCorruptingResults(t *testing.T) {
	source := dictionary.Dictionary{
		"home": {"p": `Try <a href="{{localePath}}/deals/">Acme deals</a>`},
	}

	cases := []struct {
		name string
		edit func(scope, key, value string) string
	}{
		{"drops placeholder", func(_, _, value string) string {
			return strings.ReplaceAll(value, "{{localePath}}", "")
		}},
		{"drops markup", func(_, _, value string) string {
			return "Angebote von Acme"
		}},
		{"translates protected term", func(_, _, value string) string {
			return strings.ReplaceAll(value, "Acme", "Akme")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": source}}
			translator := &recordingTranslator{edit: tc.edit}
			report, err := NewRefresher(registry(), store, translator, []string{"Acme"}, nil).Refresh(context.Background(), Options{})
			if err != nil {
				t.Fatalf("refresh: %v", err)
			}
			if report.Count(StatusRejected) != 1 {
				t.Fatalf("expected rejection, got %+v", report.Outcomes)
			}
			if !errors.Is(report.Outcomes[0].Err, ErrInvalidTranslation) {
				t.Fatalf("expected ErrInvalidTranslation, got %v", report.Outcomes[0].Err)
			}
			if len(store.saves) != 0 {
				t.Fatalf("expected nothing saved, got %v", store.saves)
			}
		})
	}
}

func TestRefreshDryRunPlansWithoutCalling(t *testing.T) {
	store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": twelveKeySource()}}
	report, err := NewRefresher(registry(), store, nil, nil, nil).Refresh(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if report.Count(StatusPlanned) != 2 || len(store.saves) != 0 {
		t.Fatalf("expected two planned scopes and no saves, got %+v", report.Outcomes)
	}
}

func TestRefreshStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := dictionary.Dictionary{"a": {"k": "One"}, "b": {"k": "Two"}}
	store := &memoryStore{docs: map[string]dictionary.Dictionary{"en": source}}
	translator := interfaces.TranslatorFunc(func(_ context.Context, _ string, src map[string]string, _ interfaces.TranslationTarget) (map[string]string, error) {
		cancel()
		return maps.Clone(src), nil
	})

	report, err := NewRefresher(registry(), store, translator, nil, nil).Refresh(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Outcomes) != 1 || len(store.saves) != 1 {
		t.Fatalf("expected the first scope to be saved before stopping, got %+v saves=%v", report.Outcomes, store.saves)
	}
}

func TestRefreshRejectsSourceAsTarget(t *testing.T) {
	store := &memoryStore{docs: map[string]dictionary.Dictionary{}}
	_, err := NewRefresher(registry(), store, &recordingTranslator{}, nil, nil).Refresh(context.Background(), Options{Locales: []string{"en"}})
	if !errors.Is(err, ErrSourceLocale) {
		t.Fatalf("expected ErrSourceLocale, got %v", err)
	}
}

func TestRefreshRequiresTranslator(t *testing.T) {
	store := &memoryStore{docs: map[string]dictionary.Dictionary{}}
	if _, err := NewRefresher(registry(), store, nil, nil, nil).Refresh(context.Background(), Options{}); !errors.Is(err, ErrTranslatorRequired) {
		t.Fatalf("expected ErrTranslatorRequired, got %v", err)
	}
}
