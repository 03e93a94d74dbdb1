package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/site"
)

func sixLocaleRegistry() site.Registry {
	return site.Registry{
		BaseURL:      "https://example.com",
		SourceLocale: "en",
		Locales: []site.Locale{
			{Code: "en", PathPrefix: "", HTMLLang: "en", Hreflang: "en", OGLocale: "en_US", DisplayName: "English", Flag: "🇬🇧"},
			{Code: "de", PathPrefix: "/de", HTMLLang: "de", Hreflang: "de", OGLocale: "de_DE", DisplayName: "Deutsch", Flag: "🇩🇪"},
			{Code: "fr", PathPrefix: "/fr", HTMLLang: "fr", Hreflang: "fr", OGLocale: "fr_FR", DisplayName: "Français", Flag: "🇫🇷"},
			{Code: "no", PathPrefix: "/no", HTMLLang: "nb", Hreflang: "nb", OGLocale: "nb_NO", DisplayName: "Norsk", Flag: "🇳🇴"},
			{Code: "da", PathPrefix: "/da", HTMLLang: "da", Hreflang: "da", OGLocale: "da_DK", DisplayName: "Dansk", Flag: "🇩🇰"},
			{Code: "sv", PathPrefix: "/sv", HTMLLang: "sv", Hreflang: "sv", OGLocale: "sv_SE", DisplayName: "Svenska", Flag: "🇸🇪"},
		},
		Pages: []site.Page{
			{Key: "home", Template: "home.html", Output: "index.html", Role: site.RoleHome},
			{Key: "guides", Template: "guides.html", Output: "guides/index.html", Role: site.RoleHub},
			{Key: "privacy", Template: "privacy.html", Output: "privacy.html", Role: site.RoleLegal, NoIndex: true},
			{Key: "deals", Template: "deals.html", Output: "deals.html", RedirectTo: "/guides/"},
		},
	}
}

const homeTemplate = `<!DOCTYPE html>
<html lang="{{htmlLang}}">
<head>
  <title>{{t.home.title}}</title>
  <link rel="canonical" href="{{canonicalUrl}}">
  {{hreflangTags}}
  <meta property="og:locale" content="{{ogLocale}}">
  {{ogLocaleAlternates}}
  <script type="application/ld+json">
  {"@type":"WebPage","name":"{{t.home.ld1_name}}"}
  </script>
</head>
<body>
  <nav>
    <a href="{{localePath}}/">{{t.common.nav_home}}</a>
    {{langSwitcher}}
  </nav>
  <h1>{{t.home.h1}}</h1>
  <p>{{t.home.p_1}}</p>
  <script>var tpl = "{{t.home.missing}}";</script>
</body>
</html>
`

func homeStore() *dictionary.Store {
	en := dictionary.Dictionary{
		"home": {
			"title":    "Acme Home",
			"ld1_name": `Acme "Best" Picks`,
			"h1":       "Welcome",
			"p_1":      `Read <a href="{{localePath}}/guides/">our guides</a>.`,
		},
		"common": {"nav_home": "Home"},
	}
	de := dictionary.Dictionary{
		"home": {
			"title":    "Startseite",
			"ld1_name": `Acme "Beste" Tipps`,
			"h1":       "Willkommen",
			"p_1":      `Lies <a href="{{localePath}}/guides/">unsere Ratgeber</a>.`,
		},
		"common": {"nav_home": "Start"},
	}
	return dictionary.NewStore("en", map[string]dictionary.Dictionary{"en": en, "de": de})
}

func mustLocale(t *testing.T, reg site.Registry, code string) site.Locale {
	t.Helper()
	locale, err := reg.Locale(code)
	if err != nil {
		t.Fatalf("locale %s: %v", code, err)
	}
	return locale
}

func mustPage(t *testing.T, reg site.Registry, key string) site.Page {
	t.Helper()
	page, err := reg.Page(key)
	if err != nil {
		t.Fatalf("page %s: %v", key, err)
	}
	return page
}

func jsonLDBlock(t *testing.T, html string) string {
	t.Helper()
	const open = `<script type="application/ld+json">`
	start := strings.Index(html, open)
	if start < 0 {
		t.Fatalf("expected json-ld block in output")
	}
	rest := html[start+len(open):]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		t.Fatalf("expected closing script tag")
	}
	return rest[:end]
}

func TestRenderResolvesStructuralAndTranslations(t *testing.T) {
	reg := sixLocaleRegistry()
	engine := NewEngine(reg)

	out, unresolved := engine.Render(homeTemplate, mustPage(t, reg, "home"), mustLocale(t, reg, "de"), homeStore())
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved placeholders, got %v", unresolved)
	}

	for _, fragment := range []string{
		`<html lang="de">`,
		`<title>Startseite</title>`,
		`<link rel="canonical" href="https://example.com/de/">`,
		`<meta property="og:locale" content="de_DE">`,
		`<a href="/de/">Start</a>`,
		`<h1>Willkommen</h1>`,
		`<p>Lies <a href="/de/guides/">unsere Ratgeber</a>.</p>`,
		`<a href="/de/" lang="de" class="active" aria-current="page">🇩🇪 Deutsch</a>`,
		`<a href="/" lang="en">🇬🇧 English</a>`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, out)
		}
	}
	if got := strings.Count(out, `class="active"`); got != 1 {
		t.Fatalf("expected exactly one active switcher link, got %d", got)
	}
	if got := strings.Count(out, `og:locale:alternate`); got != 5 {
		t.Fatalf("expected 5 og alternates, got %d", got)
	}
	if strings.Contains(out, `og:locale:alternate" content="de_DE"`) {
		t.Fatalf("expected current locale excluded from og alternates")
	}
	if !strings.Contains(out, `var tpl = "{{t.home.missing}}";`) {
		t.Fatalf("expected placeholders inside scripts to be left alone")
	}
}

func TestRenderHreflangCardinality(t *testing.T) {
	reg := sixLocaleRegistry()
	engine := NewEngine(reg)

	for _, locale := range reg.Locales {
		out, _ := engine.Render(homeTemplate, mustPage(t, reg, "home"), locale, homeStore())
		if got := strings.Count(out, `<link rel="alternate" hreflang=`); got != 7 {
			t.Fatalf("%s: expected 7 alternate links, got %d", locale.Code, got)
		}
		if got := strings.Count(out, `hreflang="x-default"`); got != 1 {
			t.Fatalf("%s: expected one x-default, got %d", locale.Code, got)
		}
		if !strings.Contains(out, `  <link rel="alternate" hreflang="x-default" href="https://example.com/">`) {
			t.Fatalf("%s: expected indented x-default pointing at the source url\n%s", locale.Code, out)
		}
		if !strings.Contains(out, `<link rel="alternate" hreflang="nb" href="https://example.com/no/">`) {
			t.Fatalf("%s: expected nb alternate\n%s", locale.Code, out)
		}
	}
}

func TestRenderLeavesMissingTranslationsVisible(t *testing.T) {
	reg := sixLocaleRegistry()
	store := dictionary.NewStore("en", map[string]dictionary.Dictionary{
		"en": {"home": {"h1": "Welcome", "p_1": "Hello there."}},
		"de": {},
	})
	template := "<h1>{{t.home.h1}}</h1>\n<p>{{t.home.p_1}}</p>\n"

	out, unresolved := NewEngine(reg).Render(template, mustPage(t, reg, "home"), mustLocale(t, reg, "de"), store)
	if out != template {
		t.Fatalf("expected template unchanged, got %q", out)
	}

	want := []Unresolved{
		{Page: "home", Locale: "de", Scope: "home", Key: "h1", Raw: "{{t.home.h1}}", Reason: ReasonMissingTranslation, Line: 1},
		{Page: "home", Locale: "de", Scope: "home", Key: "p_1", Raw: "{{t.home.p_1}}", Reason: ReasonMissingTranslation, Line: 2},
	}
	if diff := cmp.Diff(want, unresolved); diff != "" {
		t.Fatalf("unexpected unresolved (-want +got):\n%s", diff)
	}
	for _, miss := range unresolved {
		if miss.Fatal() {
			t.Fatalf("expected missing translation to be non-fatal: %v", miss)
		}
	}
}

func TestRenderReportsResolutionErrors(t *testing.T) {
	reg := sixLocaleRegistry()
	template := "<p>{{t.home.gone}}</p>\n<p>{{t.home}}</p>\n<p>{{pageTitle}}</p>\n"

	out, unresolved := NewEngine(reg).Render(template, mustPage(t, reg, "home"), mustLocale(t, reg, "en"), homeStore())
	if out != template {
		t.Fatalf("expected template unchanged, got %q", out)
	}
	reasons := make([]Reason, 0, len(unresolved))
	for _, miss := range unresolved {
		reasons = append(reasons, miss.Reason)
		if !miss.Fatal() {
			t.Fatalf("expected %s to be fatal", miss.Reason)
		}
	}
	want := []Reason{ReasonMalformed, ReasonUnknownName, ReasonMissingSourceKey}
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Fatalf("unexpected reasons (-want +got):\n%s", diff)
	}
}

func TestRenderEscapesStructuredDataValues(t *testing.T) {
	reg := sixLocaleRegistry()
	out, _ := NewEngine(reg).Render(homeTemplate, mustPage(t, reg, "home"), mustLocale(t, reg, "en"), homeStore())

	block := jsonLDBlock(t, out)
	if !json.Valid([]byte(block)) {
		t.Fatalf("expected valid json-ld, got %s", block)
	}
	var doc map[string]string
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		t.Fatalf("decode json-ld: %v", err)
	}
	if doc["name"] != `Acme "Best" Picks` {
		t.Fatalf("expected quoted name to survive, got %q", doc["name"])
	}
}

func TestRenderKeepsScriptClosingTagsEscaped(t *testing.T) {
	raw := `<html lang="en">
<head>
  <script type="application/ld+json">{"@type":"Article","description":"Why <\/script> tags matter in reviews","url":"https://example.com/a<\/b"}</script>
</head>
<body>
  <h1>Reviews</h1>
</body>
</html>`
	reg := sixLocaleRegistry()
	page := mustPage(t, reg, "home")
	extracted := extract.New(extract.DefaultVocabulary()).Extract(page, raw)
	if got, _ := extracted.Entries.Get("home", "ld1_description"); got != "Why </script> tags matter in reviews" {
		t.Fatalf("expected decoded description in the dictionary, got %q", got)
	}
	if strings.Contains(extracted.Template, "a</b") {
		t.Fatalf("expected template to keep the escaped url, got:\n%s", extracted.Template)
	}

	store := dictionary.NewStore("en", map[string]dictionary.Dictionary{"en": extracted.Entries})
	out, unresolved := NewEngine(reg).Render(extracted.Template, page, mustLocale(t, reg, "en"), store)
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved placeholders, got %v", unresolved)
	}
	if got := strings.Count(out, "</script>"); got != 1 {
		t.Fatalf("expected a single closing script tag, got %d in:\n%s", got, out)
	}

	var doc map[string]string
	if err := json.Unmarshal([]byte(jsonLDBlock(t, out)), &doc); err != nil {
		t.Fatalf("decode json-ld: %v", err)
	}
	want := map[string]string{
		"@type":       "Article",
		"description": "Why </script> tags matter in reviews",
		"url":         "https://example.com/a</b",
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("unexpected json-ld (-want +got):\n%s", diff)
	}
}

func TestRenderSourceLocaleRoundTrip(t *testing.T) {
	reg := sixLocaleRegistry()
	out, unresolved := NewEngine(reg).Render(homeTemplate, mustPage(t, reg, "home"), mustLocale(t, reg, "en"), homeStore())
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved placeholders, got %v", unresolved)
	}
	for _, fragment := range []string{
		`<html lang="en">`,
		`<title>Acme Home</title>`,
		`<link rel="canonical" href="https://example.com/">`,
		`<h1>Welcome</h1>`,
		`<p>Read <a href="/guides/">our guides</a>.</p>`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected output to contain %q", fragment)
		}
	}
}

func TestIndentAt(t *testing.T) {
	text := "<head>\n    {{hreflangTags}}\n"
	offset := strings.Index(text, "{{")
	if got := indentAt(text, offset); got != "    " {
		t.Fatalf("expected four spaces, got %q", got)
	}
	if got := indentAt("{{x}}", 0); got != "" {
		t.Fatalf("expected empty indent, got %q", got)
	}
}
